package annotator

import (
	"context"
	"sort"
	"strings"
	"unicode"
)

// KeywordExtractor ranks one- and two-word phrases by frequency and position.
// Stop words never start, end or appear alone as a phrase.
type KeywordExtractor struct {
	// MaxWords is the longest phrase in words, 1 or 2. Zero means 2.
	MaxWords int
}

type candidate struct {
	phrase string
	words  int
	freq   int
	first  int
}

// ExtractTopics implements TopicExtractor.
func (k KeywordExtractor) ExtractTopics(ctx context.Context, text string, max int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if max <= 0 {
		max = DefaultMaxTopics
	}
	maxWords := k.MaxWords
	if maxWords <= 0 || maxWords > 2 {
		maxWords = 2
	}

	cands := make(map[string]*candidate)
	add := func(phrase string, words, pos int) {
		c, ok := cands[phrase]
		if !ok {
			c = &candidate{phrase: phrase, words: words, first: pos}
			cands[phrase] = c
		}
		c.freq++
	}

	pos := 0
	for _, chunk := range phraseChunks(text) {
		for i, w := range chunk {
			if isContentWord(w) {
				add(w, 1, pos)
			}
			if maxWords == 2 && i+1 < len(chunk) && isContentWord(w) && isContentWord(chunk[i+1]) {
				add(w+" "+chunk[i+1], 2, pos)
			}
			pos++
		}
	}

	ranked := make([]*candidate, 0, len(cands))
	for _, c := range cands {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		si, sj := ranked[i].score(), ranked[j].score()
		if si != sj {
			return si > sj
		}
		if ranked[i].first != ranked[j].first {
			return ranked[i].first < ranked[j].first
		}
		return ranked[i].phrase < ranked[j].phrase
	})

	var out []string
	for _, c := range ranked {
		if overlaps(out, c.phrase) {
			continue
		}
		out = append(out, c.phrase)
		if len(out) == max {
			break
		}
	}
	return out, nil
}

// score favours repeated phrases, then bigrams, then early mentions.
func (c *candidate) score() float64 {
	s := float64(c.freq)
	if c.words == 2 {
		s *= 1.5
	}
	return s + 0.5/float64(1+c.first)
}

// overlaps reports whether phrase shares a word with any chosen phrase.
func overlaps(chosen []string, phrase string) bool {
	words := strings.Fields(phrase)
	for _, c := range chosen {
		for _, cw := range strings.Fields(c) {
			for _, w := range words {
				if cw == w {
					return true
				}
			}
		}
	}
	return false
}

// phraseChunks lowercases text and splits it into runs of words that are not
// separated by punctuation, so bigrams never straddle a clause boundary.
func phraseChunks(text string) [][]string {
	var chunks [][]string
	var cur []string
	var word strings.Builder

	flushWord := func() {
		if word.Len() == 0 {
			return
		}
		w := strings.Trim(word.String(), "'-")
		w = strings.TrimSuffix(w, "'s")
		if w != "" {
			cur = append(cur, w)
		}
		word.Reset()
	}
	flushChunk := func() {
		flushWord()
		if len(cur) > 0 {
			chunks = append(chunks, cur)
		}
		cur = nil
	}

	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '-' || r == '’':
			if r == '’' {
				r = '\''
			}
			word.WriteRune(r)
		case unicode.IsSpace(r):
			flushWord()
		default:
			flushChunk()
		}
	}
	flushChunk()
	return chunks
}

func isContentWord(w string) bool {
	if len([]rune(w)) < 3 {
		return false
	}
	if _, stop := stopWords[w]; stop {
		return false
	}
	for _, r := range w {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// stopWords is the common English stop list plus words that dominate news copy
// without naming a topic.
var stopWords = toWordSet(`
a about above after again against all almost also although always am among an and another any
anyone anything are around as at back be became because become been before being below between
both but by can cannot could did do does doing done down during each either else enough even
ever every few for from further get gets got had has have having he her here hers herself him
himself his how however i if in into is it its itself just last least less like made make many
may me might more most much must my myself neither never new next no nor not now of off often
on once one only or other others our ours ourselves out over own per perhaps please put rather
really said same say says see seem seems several she should since so some something still such
than that the their theirs them themselves then there these they this those though three through
thus to together too toward two under until up upon us very via was we well were what whatever
when where whether which while who whom whose why will with within without would yet you your
yours yourself yourselves
today yesterday tomorrow week weeks year years month months day days according reported report
reports news latest amid update updates
`)

func toWordSet(list string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(list) {
		set[w] = struct{}{}
	}
	return set
}
