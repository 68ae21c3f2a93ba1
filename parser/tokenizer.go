// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package parser splits a console input line into an argument vector.
package parser

import (
	"strings"
	"unicode"
)

// Tokenizer breaks a single input line into words
type Tokenizer struct {
	input    []rune
	position int
	current  rune
}

// NewTokenizer creates a new tokenizer
func NewTokenizer(input string) *Tokenizer {
	t := &Tokenizer{input: []rune(input)}
	if len(t.input) > 0 {
		t.current = t.input[0]
	}
	return t
}

// advance moves to the next character, 0 marks the end of input
func (t *Tokenizer) advance() {
	t.position++
	if t.position >= len(t.input) {
		t.current = 0
	} else {
		t.current = t.input[t.position]
	}
}

func (t *Tokenizer) atEnd() bool {
	return t.position >= len(t.input)
}

func (t *Tokenizer) skipWhitespace() {
	for !t.atEnd() && unicode.IsSpace(t.current) {
		t.advance()
	}
}

// Next returns the next word and whether one was found. Quote characters
// are removed, whitespace inside quotes is kept and adjacent quoted and bare
// pieces join into one word. An unterminated quote runs to the end of input.
func (t *Tokenizer) Next() (string, bool) {
	t.skipWhitespace()
	if t.atEnd() {
		return "", false
	}

	var word strings.Builder
	for !t.atEnd() && !unicode.IsSpace(t.current) {
		switch t.current {
		case '\'':
			t.advance()
			for !t.atEnd() && t.current != '\'' {
				word.WriteRune(t.current)
				t.advance()
			}
			t.advance() // closing quote
		case '"':
			t.advance()
			for !t.atEnd() && t.current != '"' {
				// inside double quotes only \" and \\ are escapes
				if t.current == '\\' && t.position+1 < len(t.input) {
					if next := t.input[t.position+1]; next == '"' || next == '\\' {
						t.advance()
					}
				}
				word.WriteRune(t.current)
				t.advance()
			}
			t.advance()
		case '\\':
			t.advance()
			if !t.atEnd() {
				word.WriteRune(t.current)
				t.advance()
			}
		default:
			word.WriteRune(t.current)
			t.advance()
		}
	}
	return word.String(), true
}

// Parse splits [line] into its argument vector. Blank input yields an empty
// vector. Parse never fails.
func Parse(line string) []string {
	t := NewTokenizer(line)
	argv := []string{}
	for {
		word, ok := t.Next()
		if !ok {
			return argv
		}
		argv = append(argv, word)
	}
}
