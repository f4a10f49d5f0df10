package check

import (
	"github.com/starford/tikibase/internal/issue"
	"github.com/starford/tikibase/internal/tree"
)

// Result holds the issues of one scan and the document graph built on the way.
type Result struct {
	Issues   []issue.Issue
	Outgoing DocLinks
	Incoming DocLinks
}

// Run executes every check against root. The occurrences check needs the
// complete link graph, so it runs after link resolution.
func Run(root *tree.Directory) Result {
	links := Links(root)

	issues := links.Issues
	issues = append(issues, Occurrences(root, links.Outgoing, links.Incoming)...)
	issues = append(issues, Outliers(root)...)
	issues = append(issues, Order(root)...)
	issues = append(issues, Structure(root)...)
	issues = append(issues, Sources(root)...)
	issue.Sort(issues)

	return Result{Issues: issues, Outgoing: links.Outgoing, Incoming: links.Incoming}
}
