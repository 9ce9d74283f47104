// Package sqlsplit splits a SQL script into independently executable
// statements. Naive splitting on ';' corrupts any script containing a
// semicolon inside a string literal or a plpgsql function body, so the
// splitter tracks quoting and comment state while scanning.
package sqlsplit

import (
	"strings"

	"github.com/getpup/pgstage"
)

// Split splits a script into ordered statements, cutting on ';' only
// outside string literals, quoted identifiers, dollar-quoted blocks, and
// comments. Empty and whitespace-only fragments are dropped; each returned
// statement is trimmed and carries no trailing terminator.
//
// Split is total: a script with an unterminated quote, dollar-quote, or
// block comment returns a *pgstage.MalformedSQLError instead of a
// misgrouped result. The split is recomputed from scratch on every call.
func Split(script string) ([]string, error) {
	var stmts []string
	start := 0
	i := 0

	flush := func(end int) {
		stmt := strings.TrimSpace(script[start:end])
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}

	for i < len(script) {
		switch c := script[i]; c {
		case ';':
			flush(i)
			i++
			start = i

		case '\'', '"':
			open := i
			end, ok := scanQuoted(script, i+1, c)
			if !ok {
				return nil, unterminated(c, open)
			}
			i = end

		case '-':
			if i+1 < len(script) && script[i+1] == '-' {
				i = scanLineComment(script, i+2)
			} else {
				i++
			}

		case '/':
			if i+1 < len(script) && script[i+1] == '*' {
				open := i
				end, ok := scanBlockComment(script, i+2)
				if !ok {
					return nil, &pgstage.MalformedSQLError{Construct: "block comment", Offset: open}
				}
				i = end
			} else {
				i++
			}

		case '$':
			tag, tagEnd := scanDollarTag(script, i)
			if tag == "" {
				i++
				break
			}
			close := strings.Index(script[tagEnd:], tag)
			if close < 0 {
				return nil, &pgstage.MalformedSQLError{Construct: "dollar-quoted string", Offset: i}
			}
			i = tagEnd + close + len(tag)

		default:
			i++
		}
	}

	flush(len(script))
	return stmts, nil
}

func unterminated(quote byte, offset int) error {
	construct := "string literal"
	if quote == '"' {
		construct = "quoted identifier"
	}
	return &pgstage.MalformedSQLError{Construct: construct, Offset: offset}
}

// scanQuoted scans a quoted region starting just after the opening quote.
// A doubled quote character is an escape, not a terminator. Returns the
// index just past the closing quote.
func scanQuoted(s string, i int, quote byte) (int, bool) {
	for i < len(s) {
		if s[i] != quote {
			i++
			continue
		}
		if i+1 < len(s) && s[i+1] == quote {
			i += 2
			continue
		}
		return i + 1, true
	}
	return 0, false
}

// scanLineComment scans to the end of the line. The newline itself is left
// in place; it is ordinary whitespace between statements.
func scanLineComment(s string, i int) int {
	for i < len(s) && s[i] != '\n' {
		i++
	}
	return i
}

// scanBlockComment scans a block comment body starting just after the
// opening marker. Block comments nest, per Postgres.
func scanBlockComment(s string, i int) (int, bool) {
	depth := 1
	for i < len(s) {
		if i+1 < len(s) {
			switch {
			case s[i] == '/' && s[i+1] == '*':
				depth++
				i += 2
				continue
			case s[i] == '*' && s[i+1] == '/':
				depth--
				i += 2
				if depth == 0 {
					return i, true
				}
				continue
			}
		}
		i++
	}
	return 0, false
}

// scanDollarTag reports whether s[i:] opens a dollar-quote delimiter
// ($$ or $tag$). It returns the full delimiter including both dollar
// signs, and the index just past it, or "" if this '$' does not open one
// (e.g. a positional parameter like $1).
func scanDollarTag(s string, i int) (string, int) {
	j := i + 1
	// Tags follow identifier rules: no leading digit, so $1 stays a
	// positional parameter.
	if j < len(s) && isDigit(s[j]) {
		return "", 0
	}
	for j < len(s) && isTagChar(s[j]) {
		j++
	}
	if j < len(s) && s[j] == '$' {
		return s[i : j+1], j + 1
	}
	return "", 0
}

func isTagChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		isDigit(c)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
