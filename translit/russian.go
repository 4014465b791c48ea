package translit

// Russian rule table.
//
// Most letters map unconditionally. The contextual rules:
//   - к becomes "k" before a vowel and "c" elsewhere, so "кд" reads as
//     "cd" while "кат" reads as "kat". At end of input the word-boundary
//     rule checks the previous rune instead.
//   - и doubled with itself collapses to "y" ("ии" -> "y").
//   - ь/ъ are glides with no Latin counterpart: a consonant+glide pair
//     collapses to the bare consonant, and a stray glide produces nothing.

var russianVowels = map[rune]bool{
	'а': true, 'е': true, 'ё': true, 'и': true, 'о': true,
	'у': true, 'ы': true, 'э': true, 'ю': true, 'я': true,
}

func newRussian() Transliterator {
	return &table{
		lang: LangRussian,

		simple: map[rune]string{
			'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d",
			'е': "e", 'ё': "yo", 'ж': "zh", 'з': "z",
			'й': "j", 'л': "l", 'м': "m", 'н': "n", 'о': "o",
			'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
			'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh",
			'щ': "shch", 'ы': "y", 'э': "e", 'ю': "yu", 'я': "ya",
		},

		rules: map[rune]ruleFn{
			'к': func(ctx ruleContext) (string, int) {
				if ctx.Next == 0 {
					// Word boundary: fall back to the previous rune.
					if russianVowels[ctx.Prev] {
						return "k", 0
					}
					return "c", 0
				}
				if russianVowels[ctx.Next] {
					return "k", 0
				}
				return "c", 0
			},
			'и': func(ctx ruleContext) (string, int) {
				if ctx.Next == 'и' {
					// Doubled и collapses to a single y and the
					// lookahead rune is consumed.
					return "y", 1
				}
				return "i", 0
			},
			'ь': func(ctx ruleContext) (string, int) { return "", 0 },
			'ъ': func(ctx ruleContext) (string, int) { return "", 0 },
		},

		digraphs: []digraph{
			{"yo", 'ё'},
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
			'f': 'ф', 'g': 'г', 'h': 'х', 'i': 'и', 'j': 'й',
			'k': 'к', 'l': 'л', 'm': 'м', 'n': 'н', 'o': 'о',
			'p': 'п', 'q': 'к', 'r': 'р', 's': 'с', 't': 'т',
			'u': 'у', 'v': 'в', 'w': 'в', 'y': 'ы', 'z': 'з',
		},
	}
}
