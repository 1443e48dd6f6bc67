package server

import (
	"html/template"
	"strings"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/errors"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/semantic"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/wiki"
)

const pageTemplateText = `<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
{{if .Approved}}<p class="approved-notice">Showing approved revision {{.RevID}}.</p>{{end}}
<pre class="page-content">{{.Content}}</pre>
{{if .Facts}}
<h2>Semantic properties</h2>
<table class="semantic-facts">
<tr><th>Property</th><th>Value</th></tr>
{{range .Facts}}<tr><td>{{.Property}}</td><td>{{.Value}}</td></tr>
{{end}}</table>
{{end}}
</body>
</html>
`

var pageTemplate = template.Must(template.New("page").Parse(pageTemplateText))

type pageView struct {
	Title    string
	RevID    int64
	Approved bool
	Content  string
	Facts    []semantic.Fact
}

// renderDocument produces the document's page HTML, serving from the render
// cache when possible. The displayed revision is the approved one when an
// approval exists, the latest otherwise; the facts table always shows what
// the index currently holds.
func (s *Server) renderDocument(doc wiki.DocumentID) (string, error) {
	if entry, ok := s.cache.Get(doc); ok {
		return entry.HTML, nil
	}

	document, err := s.store.GetDocument(doc)
	if err != nil {
		return "", err
	}

	revID := document.LatestRevID
	approved := false
	if approvedRev, ok, err := s.store.ApprovedRevisionID(doc); err != nil {
		return "", err
	} else if ok {
		revID = approvedRev
		approved = true
	}

	view := pageView{
		Title:    doc.String(),
		RevID:    revID,
		Approved: approved,
	}

	if revID > 0 {
		rev, err := s.store.GetRevisionByID(revID)
		if err != nil {
			return "", err
		}
		view.Content = rev.Content
	}

	if data, err := s.index.GetData(doc); err != nil {
		s.logger.Warnw("Failed to load semantic data for render",
			"document", doc.String(),
			"error", err,
		)
	} else {
		view.Facts = data.Facts
	}

	var sb strings.Builder
	if err := pageTemplate.Execute(&sb, view); err != nil {
		return "", errors.Wrap(err, "failed to render page")
	}

	html := sb.String()
	s.cache.Put(doc, html)
	return html, nil
}
