package translit

// Ukrainian rule table. Differs from Russian where the alphabets differ:
// г is "h" (ґ is the hard "g"), и is "y", і is "i", and ї/є carry a
// leading glide. The apostrophe after a consonant is dropped the same
// way the Russian glides are.

var ukrainianVowels = map[rune]bool{
	'а': true, 'е': true, 'є': true, 'и': true, 'і': true,
	'ї': true, 'о': true, 'у': true, 'ю': true, 'я': true,
}

func newUkrainian() Transliterator {
	return &table{
		lang: LangUkrainian,

		simple: map[rune]string{
			'а': "a", 'б': "b", 'в': "v", 'г': "h", 'ґ': "g",
			'д': "d", 'е': "e", 'є': "ye", 'ж': "zh", 'з': "z",
			'і': "i", 'ї': "yi", 'й': "j", 'л': "l", 'м': "m",
			'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s",
			'т': "t", 'у': "u", 'ф': "f", 'х': "kh", 'ц': "ts",
			'ч': "ch", 'ш': "sh", 'щ': "shch", 'ю': "yu", 'я': "ya",
		},

		rules: map[rune]ruleFn{
			'к': func(ctx ruleContext) (string, int) {
				if ctx.Next == 0 {
					if ukrainianVowels[ctx.Prev] {
						return "k", 0
					}
					return "c", 0
				}
				if ukrainianVowels[ctx.Next] {
					return "k", 0
				}
				return "c", 0
			},
			'и': func(ctx ruleContext) (string, int) {
				if ctx.Next == 'и' {
					return "y", 1
				}
				return "y", 0
			},
			'ь': func(ctx ruleContext) (string, int) { return "", 0 },
			'\'': func(ctx ruleContext) (string, int) {
				// Apostrophe is a glide separator after a consonant
				// (м'ята); keep it elsewhere, it may be shell quoting.
				if ctx.Prev != 0 && !ukrainianVowels[ctx.Prev] && isCyrillic(ctx.Prev) {
					return "", 0
				}
				return "'", 0
			},
		},

		digraphs: []digraph{
			{"yi", 'ї'},
			{"ye", 'є'},
			{"yu", 'ю'},
			{"ya", 'я'},
			{"zh", 'ж'},
			{"kh", 'х'},
			{"ts", 'ц'},
			{"ch", 'ч'},
			{"sh", 'ш'},
		},

		singles: map[rune]rune{
			'a': 'а', 'b': 'б', 'c': 'к', 'd': 'д', 'e': 'е',
			'f': 'ф', 'g': 'ґ', 'h': 'г', 'i': 'і', 'j': 'й',
			'k': 'к', 'l': 'л', 'm': 'м', 'n': 'н', 'o': 'о',
			'p': 'п', 'q': 'к', 'r': 'р', 's': 'с', 't': 'т',
			'u': 'у', 'v': 'в', 'w': 'в', 'y': 'и', 'z': 'з',
		},
	}
}

// isCyrillic reports whether r sits in the Cyrillic block.
func isCyrillic(r rune) bool {
	return r >= 0x0400 && r <= 0x04FF
}
