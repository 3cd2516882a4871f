package browser

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"

	"careerpilot/internal/apperrors"
	"careerpilot/internal/models"
	"careerpilot/internal/platform"
	"careerpilot/internal/worker"
)

// FormPage is a page the submit filler can read and click.
type FormPage interface {
	worker.Page
	HTML(ctx context.Context) (string, error)
	Click(ctx context.Context, selector string) error
}

// FormState is what Inspect finds in a job page.
type FormState struct {
	Closed    bool
	Applied   bool
	HasForm   bool
	HasSubmit bool
	Job       models.JobMetadata
}

// Inspect reads a job page snapshot against the platform's selectors.
func Inspect(html string, sel platform.Selectors) (FormState, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return FormState{}, errors.Wrap(err, "parse html")
	}
	text := strings.ToLower(strings.Join(strings.Fields(doc.Find("body").Text()), " "))
	var st FormState
	st.Closed = containsAny(text, sel.ClosedMarkers)
	st.Applied = containsAny(text, sel.AppliedMarkers)
	if sel.Form != "" {
		st.HasForm = doc.Find(sel.Form).Length() > 0
	}
	if sel.Submit != "" {
		st.HasSubmit = doc.Find(sel.Submit).Length() > 0
	}
	st.Job = models.JobMetadata{
		Title:   strings.TrimSpace(doc.Find("h1").First().Text()),
		Company: strings.TrimSpace(doc.Find(`meta[property="og:site_name"]`).AttrOr("content", "")),
	}
	return st, nil
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(text, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// SubmitFiller submits the application form as the page presents it. It
// fills no fields; closed postings, prior applications and pages without a
// form are skipped.
type SubmitFiller struct{}

// Fill implements worker.FormFiller.
func (SubmitFiller) Fill(ctx context.Context, page worker.Page, adapter platform.Adapter, _ models.Task) (worker.FillResult, error) {
	fp, ok := page.(FormPage)
	if !ok {
		return worker.FillResult{}, errors.New("page does not support form submission")
	}
	html, err := fp.HTML(ctx)
	if err != nil {
		return worker.FillResult{}, err
	}
	sel := adapter.Selectors()
	st, err := Inspect(html, sel)
	if err != nil {
		return worker.FillResult{}, err
	}
	switch {
	case st.Closed:
		return worker.FillResult{}, apperrors.Skip("posting closed")
	case st.Applied:
		return worker.FillResult{}, apperrors.Skip("already applied")
	case !st.HasForm:
		return worker.FillResult{}, apperrors.Skip("no application form")
	case !st.HasSubmit:
		return worker.FillResult{}, errors.New("submit control not found")
	}
	if err := fp.Click(ctx, sel.Submit); err != nil {
		return worker.FillResult{}, err
	}
	return worker.FillResult{Submitted: true, Job: st.Job}, nil
}
