package lib

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"text/template"

	log "github.com/sirupsen/logrus"
)

type PhraseValues struct {
	Round  int
	Winner string
	Loser  string
	Item   string
	Power  int
}

// Phrases hands out round commentary templates without repeating one until every
// template has been used. Not safe for concurrent use.
type Phrases struct {
	rng             *rand.Rand
	templateIndexes []int
	templates       []*template.Template
}

func NewPhrases(data []byte, rng *rand.Rand) (*Phrases, error) {
	var phraseStrings []string
	if err := json.Unmarshal(data, &phraseStrings); err != nil {
		return nil, fmt.Errorf("parse phrases: %w", err)
	}

	if len(phraseStrings) == 0 {
		return nil, fmt.Errorf("no phrases in phrase data")
	}

	p := &Phrases{rng: rng}
	for i, phrase := range phraseStrings {
		tmpl, err := template.New(fmt.Sprintf("phrase-%v", i)).Parse(phrase)
		if err != nil {
			return nil, fmt.Errorf("parse phrase %q: %w", phrase, err)
		}

		p.templates = append(p.templates, tmpl)
	}

	p.generateTemplateIndexes()
	return p, nil
}

func (p *Phrases) Phrase(vals PhraseValues) string {
	defaultPhrase := fmt.Sprintf("%v takes round %v with %v.", vals.Winner, vals.Round, vals.Item)

	i := p.rng.Intn(len(p.templateIndexes))
	tmpl := p.templates[p.templateIndexes[i]]

	if len(p.templateIndexes) == 1 {
		p.generateTemplateIndexes()
	} else {
		p.templateIndexes = append(p.templateIndexes[:i], p.templateIndexes[i+1:]...)
	}

	var result bytes.Buffer
	if err := tmpl.Execute(&result, vals); err != nil {
		log.Errorf("error executing phrase template: %v", err)
		return defaultPhrase
	}

	return result.String()
}

func (p *Phrases) PhraseCount() int {
	return len(p.templates)
}

func (p *Phrases) generateTemplateIndexes() {
	n := len(p.templates)
	p.templateIndexes = make([]int, n)
	for i := 0; i < n; i++ {
		p.templateIndexes[i] = i
	}
}
