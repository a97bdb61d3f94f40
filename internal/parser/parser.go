// Package parser reads flashcards written as Q:/A:/C: blocks in markdown files.
// Each card becomes a record of domain.BasicSchema.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/deckpack/internal/domain"
)

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
	contextPrefix  = "C:"
	tagsPrefix     = "T:"
	separator      = "---"
)

type state int

const (
	seeking state = iota
	readingQuestion
	readingAnswer
	readingContext
)

// ParseFile reads a file from the given path and extracts all records.
func ParseFile(path string) ([]domain.FlashcardRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all records. Blocks without a
// question are dropped; a missing answer or context is kept as an empty field.
func Parse(r io.Reader) ([]domain.FlashcardRecord, error) {
	p := &parser{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.line(scanner.Text())
	}
	p.finishCard()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return p.records, nil
}

type parser struct {
	records []domain.FlashcardRecord

	state    state
	question string
	answer   string
	context  string
	tags     []string
	block    []string
}

func (p *parser) line(line string) {
	switch {
	case line == separator:
		p.finishCard()
	case strings.HasPrefix(line, questionPrefix):
		p.flushBlock()
		// A new question always starts a new card.
		if p.state != seeking {
			p.finishCard()
		}
		p.start(readingQuestion, line[len(questionPrefix):])
	case strings.HasPrefix(line, answerPrefix):
		p.flushBlock()
		p.start(readingAnswer, line[len(answerPrefix):])
	case strings.HasPrefix(line, contextPrefix):
		p.flushBlock()
		p.start(readingContext, line[len(contextPrefix):])
	case strings.HasPrefix(line, tagsPrefix) && p.state != seeking:
		p.flushBlock()
		p.tags = append(p.tags, strings.Fields(line[len(tagsPrefix):])...)
	case p.state != seeking:
		p.block = append(p.block, line)
	}
}

func (p *parser) start(s state, rest string) {
	p.state = s
	p.block = append(p.block, strings.TrimPrefix(rest, " "))
}

// flushBlock stores the lines gathered so far in the field being read.
func (p *parser) flushBlock() {
	if len(p.block) == 0 {
		return
	}
	content := strings.TrimRight(strings.Join(p.block, "\n"), "\n")
	switch p.state {
	case readingQuestion:
		p.question = content
	case readingAnswer:
		p.answer = content
	case readingContext:
		p.context = content
	}
	p.block = nil
}

func (p *parser) finishCard() {
	p.flushBlock()
	if p.question != "" {
		p.records = append(p.records, domain.FlashcardRecord{
			Values: []string{p.question, p.answer, p.context},
			Tags:   p.tags,
		})
	}
	*p = parser{records: p.records}
}
