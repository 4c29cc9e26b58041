package application

import (
	"regexp"
	"sort"
	"strings"

	"github.com/bnema/agentdeck/internal/domain"
)

// This file is the only place that reads tool intent out of free text. Everything
// downstream works on domain.ToolCallRequest.

var (
	urlPattern    = regexp.MustCompile(`https?://[^\s<>"'` + "`" + `\]\)]+`)
	argPattern    = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s,\)]+))`)
	quotedPattern = regexp.MustCompile(`"([^"]{3,})"`)
)

// FirstURL returns the first http(s) URL in text, without trailing punctuation.
func FirstURL(text string) string {
	match := urlPattern.FindString(text)
	return strings.TrimRight(match, ".,;:!?")
}

type toolMention struct {
	tool string
	// start and end bound the mention itself; args are read from end onwards.
	start int
	end   int
	call  bool
}

// mentionPattern builds one pattern per known tool. Names with an underscore are
// distinctive enough to match bare; plain words only count as a mention when
// written as a call, in backticks, or as "<name> tool".
func mentionPattern(tool string) *regexp.Regexp {
	name := regexp.QuoteMeta(tool)
	if strings.Contains(tool, "_") {
		return regexp.MustCompile(`(?i)\b` + name + `\b(\s*\()?`)
	}
	return regexp.MustCompile(`(?i)(?:` + "`" + name + "`" + `|\b` + name + `\s+tool\b|\b` + name + `(\s*\())`)
}

var mentionCache = map[string]*regexp.Regexp{}

func init() {
	for _, tool := range domain.KnownTools {
		mentionCache[tool] = mentionPattern(tool)
	}
}

func findMentions(text string, known []string) []toolMention {
	mentions := make([]toolMention, 0)
	taken := make([][2]int, 0)

	candidates := append([]string(nil), known...)
	sort.SliceStable(candidates, func(i, j int) bool { return len(candidates[i]) > len(candidates[j]) })

	for _, tool := range candidates {
		pattern, ok := mentionCache[tool]
		if !ok {
			pattern = mentionPattern(tool)
		}
		for _, loc := range pattern.FindAllStringSubmatchIndex(text, -1) {
			if overlaps(taken, loc[0], loc[1]) {
				continue
			}
			taken = append(taken, [2]int{loc[0], loc[1]})
			mentions = append(mentions, toolMention{
				tool:  tool,
				start: loc[0],
				end:   loc[1],
				call:  loc[2] >= 0,
			})
		}
	}

	sort.SliceStable(mentions, func(i, j int) bool { return mentions[i].start < mentions[j].start })
	return mentions
}

func overlaps(taken [][2]int, start, end int) bool {
	for _, span := range taken {
		if start < span[1] && end > span[0] {
			return true
		}
	}
	return false
}

// MentionedTools lists the known tools named in text, in order of first appearance.
func MentionedTools(text string, known []string) []string {
	out := make([]string, 0)
	seen := make(map[string]struct{})
	for _, mention := range findMentions(text, known) {
		if _, ok := seen[mention.tool]; ok {
			continue
		}
		seen[mention.tool] = struct{}{}
		out = append(out, mention.tool)
	}
	return out
}

// ExtractToolCallRequests converts tool mentions in text into structured requests,
// one per tool. Arguments come from key=value pairs inside the call parentheses, or
// on the rest of the line for bare mentions. The first quoted string that is not an
// argument value becomes Task.
func ExtractToolCallRequests(text string, known []string) []domain.ToolCallRequest {
	mentions := findMentions(text, known)
	requests := make([]domain.ToolCallRequest, 0, len(mentions))
	seen := make(map[string]struct{})

	for i, mention := range mentions {
		if _, ok := seen[mention.tool]; ok {
			continue
		}
		seen[mention.tool] = struct{}{}

		limit := len(text)
		if i+1 < len(mentions) {
			limit = mentions[i+1].start
		}
		segment := argumentSegment(text[mention.end:limit], mention.call)

		req := domain.ToolCallRequest{Tool: mention.tool, Args: map[string]string{}}
		for _, match := range argPattern.FindAllStringSubmatch(segment, -1) {
			key := strings.ToLower(match[1])
			value := firstNonEmpty(match[2], match[3], match[4])
			if _, exists := req.Args[key]; !exists {
				req.Args[key] = value
			}
		}
		if task, ok := req.Args["task"]; ok {
			req.Task = task
		} else if quoted := quotedPattern.FindStringSubmatch(argPattern.ReplaceAllString(segment, "")); quoted != nil {
			req.Task = quoted[1]
		}

		requests = append(requests, req)
	}

	return requests
}

func argumentSegment(rest string, call bool) string {
	if call {
		if end := closingParen(rest); end >= 0 {
			return rest[:end]
		}
	}
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		return rest[:idx]
	}
	return rest
}

// closingParen finds the paren closing an already opened call, skipping quoted text.
func closingParen(s string) int {
	depth := 1
	var quote rune
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
