package language

import (
	"fmt"
	"strings"

	xtext "golang.org/x/text/language"
)

// AutoDetect asks the speech engine to detect the spoken language itself.
const AutoDetect = "auto"

// Undetermined is the ISO 639-2 code for a track of unknown language.
const Undetermined = "und"

type entry struct {
	code2 string   // ISO 639-1
	code3 string   // ISO 639-2/T
	alt3  string   // ISO 639-2/B when it differs ("fre", "ger")
	words []string // English names accepted in config
}

// Languages people commonly type by name or bibliographic code. Anything else
// goes through BCP 47 parsing.
var aliases = []entry{
	{"en", "eng", "", []string{"english"}},
	{"es", "spa", "", []string{"spanish"}},
	{"fr", "fra", "fre", []string{"french"}},
	{"de", "deu", "ger", []string{"german"}},
	{"it", "ita", "", []string{"italian"}},
	{"pt", "por", "", []string{"portuguese"}},
	{"ja", "jpn", "", []string{"japanese"}},
	{"ko", "kor", "", []string{"korean"}},
	{"zh", "zho", "chi", []string{"chinese", "mandarin"}},
	{"ru", "rus", "", []string{"russian"}},
	{"uk", "ukr", "", []string{"ukrainian"}},
	{"ar", "ara", "", []string{"arabic"}},
	{"hi", "hin", "", []string{"hindi"}},
	{"nl", "nld", "dut", []string{"dutch"}},
	{"pl", "pol", "", []string{"polish"}},
	{"sv", "swe", "", []string{"swedish"}},
	{"no", "nor", "", []string{"norwegian"}},
	{"tr", "tur", "", []string{"turkish"}},
}

var byAlias map[string]*entry

func init() {
	byAlias = make(map[string]*entry, len(aliases)*4)
	for i := range aliases {
		e := &aliases[i]
		byAlias[e.code2] = e
		byAlias[e.code3] = e
		if e.alt3 != "" {
			byAlias[e.alt3] = e
		}
		for _, w := range e.words {
			byAlias[w] = e
		}
	}
}

// resolve maps a configured language to its base language subtag.
func resolve(code string) (xtext.Base, error) {
	trimmed := strings.ToLower(strings.TrimSpace(code))
	if trimmed == "" {
		return xtext.Base{}, fmt.Errorf("language code is empty")
	}
	if e, ok := byAlias[trimmed]; ok {
		trimmed = e.code2
	}
	tag, err := xtext.Parse(trimmed)
	if err != nil {
		return xtext.Base{}, fmt.Errorf("language code %q: %w", code, err)
	}
	base, confidence := tag.Base()
	if confidence == xtext.No {
		return xtext.Base{}, fmt.Errorf("language code %q is not recognized", code)
	}
	return base, nil
}

// SpeechCode normalizes a configured language into the code passed to the
// speech engine's -l flag: ISO 639-1 where one exists, otherwise the BCP 47
// base subtag. "auto" passes through.
func SpeechCode(code string) (string, error) {
	if strings.EqualFold(strings.TrimSpace(code), AutoDetect) {
		return AutoDetect, nil
	}
	base, err := resolve(code)
	if err != nil {
		return "", err
	}
	return base.String(), nil
}

// TrackCode returns the ISO 639-2 code used to tag an embedded subtitle
// track, or Undetermined when code is "auto" or not recognized.
func TrackCode(code string) string {
	trimmed := strings.ToLower(strings.TrimSpace(code))
	if e, ok := byAlias[trimmed]; ok {
		return e.code3
	}
	if trimmed == AutoDetect {
		return Undetermined
	}
	base, err := resolve(trimmed)
	if err != nil {
		return Undetermined
	}
	if iso3 := base.ISO3(); iso3 != "" {
		return iso3
	}
	return Undetermined
}
