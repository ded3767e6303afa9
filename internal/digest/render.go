package digest

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// Message is a rendered digest ready for a mail sender.
type Message struct {
	To      string
	Subject string
	HTML    string
}

type templateData struct {
	Title    string
	Campaign string
	Date     string
	Groups   []templateGroup
	Total    int
}

type templateGroup struct {
	Key   string
	Items []templateItem
}

type templateItem struct {
	Title  string
	URL    string
	Source string
	Date   string
}

//go:embed digest.html.tmpl
var digestTpl string

var compiled = template.Must(template.New("digest").Parse(digestTpl))

// Render produces the subject and HTML body for d. Times are shown in loc.
func Render(d Digest, now time.Time, loc *time.Location) (Message, error) {
	if loc == nil {
		loc = time.UTC
	}

	data := templateData{
		Campaign: d.Campaign,
		Date:     now.In(loc).Format("2006/01/02 15:04"),
		Total:    d.Len(),
	}
	if d.Campaign != "" {
		data.Title = d.Campaign + " campaign report"
	} else {
		data.Title = "News briefing"
	}

	for _, g := range d.Groups {
		tg := templateGroup{Key: g.Key}
		for _, a := range g.Articles {
			tg.Items = append(tg.Items, templateItem{
				Title:  a.Title,
				URL:    a.URL,
				Source: a.Source,
				Date:   a.PublishedAt.In(loc).Format("01/02 15:04"),
			})
		}
		data.Groups = append(data.Groups, tg)
	}

	var buf bytes.Buffer
	if err := compiled.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render digest: %w", err)
	}

	return Message{
		To:      d.Recipient,
		Subject: Subject(d),
		HTML:    buf.String(),
	}, nil
}

// Subject names the first three group keys of a default digest, or the
// campaign and item count of a campaign digest.
func Subject(d Digest) string {
	if d.Campaign != "" {
		return fmt.Sprintf("[Campaign] %s news report (%d items)", d.Campaign, d.Len())
	}
	keys := d.Keys()
	if len(keys) > 3 {
		keys = keys[:3]
	}
	return fmt.Sprintf("[News] %s...", strings.Join(keys, ", "))
}
