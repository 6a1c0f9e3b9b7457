// Package render turns a ViewState into HTML. Rendering is a pure function
// of the view and the current instant.
package render

import (
	"embed"
	"html/template"
	"net/url"
	"time"

	"github.com/a-h/templ"

	"activities-web/internal/domain"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.New("").
	Funcs(template.FuncMap{"unregisterPath": UnregisterPath}).
	ParseFS(templatesFS, "templates/*.html"))

type pageData struct {
	View   *domain.ViewState
	Banner bannerData
}

// bannerData carries the remaining display time so the browser hides the
// message on its own once it runs out.
type bannerData struct {
	Visible     bool
	Kind        domain.MessageKind
	Text        string
	HideAfterMS int64
}

func newBannerData(b domain.Banner, now time.Time) bannerData {
	if !b.Visible(now) {
		return bannerData{}
	}
	return bannerData{
		Visible:     true,
		Kind:        b.Kind,
		Text:        b.Text,
		HideAfterMS: b.Remaining(now).Milliseconds(),
	}
}

func component(name string, data any) templ.Component {
	return templ.FromGoHTML(templates.Lookup(name), data)
}

// Page renders the full document.
func Page(view *domain.ViewState, now time.Time) templ.Component {
	return component("page", pageData{View: view, Banner: newBannerData(view.Banner, now)})
}

// Activities renders the list region followed by the activity selector.
func Activities(view *domain.ViewState) templ.Component {
	return component("activities", view)
}

// ActivityList renders the loading text, the error view, or one card per
// activity.
func ActivityList(view *domain.ViewState) templ.Component {
	return component("activity_list", view)
}

// ActivityCard renders one activity with its participants and their
// unregister controls.
func ActivityCard(card *domain.ActivityView) templ.Component {
	return component("activity_card", card)
}

// ActivityOptions renders the placeholder option and one option per activity.
func ActivityOptions(view *domain.ViewState) templ.Component {
	return component("activity_options", view)
}

// SignupForm renders the signup form with the retained values.
func SignupForm(view *domain.ViewState) templ.Component {
	return component("signup_form", view)
}

// Banner renders the status message, hidden once its display interval
// has run out.
func Banner(b domain.Banner, now time.Time) templ.Component {
	return component("banner", newBannerData(b, now))
}

// UnregisterPath is the form action of an entry's unregister control.
func UnregisterPath(entryID string) string {
	return "/participants/" + url.PathEscape(entryID) + "/unregister"
}
