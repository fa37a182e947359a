// Package views renders the web UI from typed view models. Constructors
// take domain records and return a View; translation and formatting happen
// at render time with the request context, and html/template escapes all
// user content.
package views

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"unicode/utf8"

	"github.com/doubtdesk/doubtdesk/internal/i18n"
	"github.com/doubtdesk/doubtdesk/internal/model"
)

//go:embed templates/*.html static/*
var assets embed.FS

// excerptLen is the longest doubt text shown in list rows.
const excerptLen = 70

const (
	dateTimeFormat = "02 Jan 2006, 15:04"
	dateFormat     = "02 Jan 2006"
)

func parse(page string, extra ...string) *template.Template {
	files := append([]string{"templates/layout.html", "templates/" + page}, extra...)
	return template.Must(template.New("layout.html").ParseFS(assets, files...))
}

var (
	landingTmpl       = parse("landing.html")
	loginTmpl         = parse("login.html")
	registerTmpl      = parse("register.html")
	dashboardTmpl     = parse("dashboard.html", "templates/doubt_table.html")
	doubtListTmpl     = parse("doubts.html", "templates/doubt_table.html")
	askTmpl           = parse("ask.html")
	detailTmpl        = parse("doubt_detail.html")
	adminTeachersTmpl = parse("admin_teachers.html")
	adminStudentsTmpl = parse("admin_students.html")
)

// View is a page ready to render with a request context.
type View struct {
	tmpl  *template.Template
	build func(ctx context.Context) any
}

// Render executes the view against the layout.
func (v View) Render(ctx context.Context, w io.Writer) error {
	return v.tmpl.ExecuteTemplate(w, "layout.html", v.build(ctx))
}

// Static serves the embedded stylesheet and other assets.
func Static() http.Handler {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// Page carries layout-level data shared by every view.
type Page struct {
	AppTitle      string
	Title         string
	User          *model.Session
	Nav           []NavItem
	CSRF          string
	Notice        string
	Error         string
	LogoutLabel   string
	LogoutConfirm string
}

// NavItem is one entry in the top navigation.
type NavItem struct {
	Label  string
	URL    string
	Active bool
}

type optionItem struct {
	Value    string
	Label    string
	Selected bool
}

func newPage(ctx context.Context, titleID, activeURL string) Page {
	sess := model.SessionFromContext(ctx)
	return Page{
		AppTitle:      i18n.T(ctx, "AppTitle"),
		Title:         i18n.T(ctx, titleID),
		User:          sess,
		Nav:           navFor(ctx, sess, activeURL),
		CSRF:          model.CSRFTokenFromContext(ctx),
		LogoutLabel:   i18n.T(ctx, "NavLogout"),
		LogoutConfirm: i18n.T(ctx, "ConfirmLogout"),
	}
}

func navFor(ctx context.Context, sess *model.Session, active string) []NavItem {
	type entry struct{ id, url string }
	var entries []entry
	switch {
	case sess == nil:
		entries = []entry{{"NavLogin", "/login"}, {"NavRegister", "/register"}}
	case sess.Role == model.RoleStudent:
		entries = []entry{
			{"NavDashboard", "/student"},
			{"NavMyDoubts", "/student/doubts"},
			{"NavAskDoubt", "/student/ask"},
		}
	case sess.Role == model.RoleTeacher:
		entries = []entry{
			{"NavDashboard", "/teacher"},
			{"NavAllDoubts", "/teacher/doubts"},
		}
	default:
		entries = []entry{
			{"NavDashboard", "/admin"},
			{"NavAllDoubts", "/teacher/doubts"},
			{"NavTeachers", "/admin/teachers"},
			{"NavStudents", "/admin/students"},
		}
	}
	items := make([]NavItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, NavItem{
			Label:  i18n.T(ctx, e.id),
			URL:    e.url,
			Active: e.url == active,
		})
	}
	return items
}

// excerpt shortens list text to excerptLen runes with a trailing ellipsis.
func excerpt(s string) string {
	if utf8.RuneCountInString(s) <= excerptLen {
		return s
	}
	return string([]rune(s)[:excerptLen]) + "..."
}

func statusLabel(ctx context.Context, s model.DoubtStatus) string {
	switch s {
	case model.StatusPending:
		return i18n.T(ctx, "StatusPending")
	case model.StatusInProgress:
		return i18n.T(ctx, "StatusInProgress")
	case model.StatusResolved:
		return i18n.T(ctx, "StatusResolved")
	}
	return string(s)
}

func statusClass(s model.DoubtStatus) string {
	switch s {
	case model.StatusInProgress:
		return "status-in-progress"
	case model.StatusResolved:
		return "status-resolved"
	}
	return "status-pending"
}

// statusOptions builds a status select. The wire sentinel "All" is offered
// only for filters.
func statusOptions(ctx context.Context, selected string, withAll bool) []optionItem {
	var opts []optionItem
	if withAll {
		opts = append(opts, optionItem{
			Value:    "All",
			Label:    i18n.T(ctx, "StatusAll"),
			Selected: selected == "All" || selected == "",
		})
	}
	for _, s := range model.AllDoubtStatuses {
		opts = append(opts, optionItem{
			Value:    string(s),
			Label:    statusLabel(ctx, s),
			Selected: selected == string(s),
		})
	}
	return opts
}

type doubtRow struct {
	DetailURL   string
	Subject     string
	Excerpt     string
	Student     string
	StatusLabel string
	StatusClass string
	Asked       string
}

type doubtTable struct {
	ShowStudent bool
	ColSubject  string
	ColDoubt    string
	ColStudent  string
	ColStatus   string
	ColAsked    string
	Rows        []doubtRow
	Empty       string
}

func buildDoubtTable(ctx context.Context, doubts []model.Doubt, showStudent bool, emptyID string) doubtTable {
	t := doubtTable{
		ShowStudent: showStudent,
		ColSubject:  i18n.T(ctx, "ColSubject"),
		ColDoubt:    i18n.T(ctx, "ColDoubt"),
		ColStudent:  i18n.T(ctx, "ColStudent"),
		ColStatus:   i18n.T(ctx, "ColStatus"),
		ColAsked:    i18n.T(ctx, "ColAsked"),
	}
	if len(doubts) == 0 {
		t.Empty = i18n.T(ctx, emptyID)
		return t
	}
	for _, d := range doubts {
		t.Rows = append(t.Rows, doubtRow{
			DetailURL:   fmt.Sprintf("/doubts/%d", d.ID),
			Subject:     d.Subject,
			Excerpt:     excerpt(d.Text),
			Student:     d.StudentName,
			StatusLabel: statusLabel(ctx, d.Status),
			StatusClass: statusClass(d.Status),
			Asked:       d.CreatedAt.Format(dateTimeFormat),
		})
	}
	return t
}

type statCard struct {
	Label string
	Value string
}
