package views

import (
	"context"
	"fmt"
	"strconv"

	"github.com/doubtdesk/doubtdesk/internal/i18n"
	"github.com/doubtdesk/doubtdesk/internal/model"
)

// Subjects are the choices offered when a student asks a doubt.
var Subjects = []string{
	"Mathematics",
	"Physics",
	"Chemistry",
	"Biology",
	"English",
	"Computer Science",
	"Other",
}

type landingData struct {
	Page
	Tagline       string
	Lead          string
	SignInLabel   string
	RegisterLabel string
}

// Landing is the public front page.
func Landing() View {
	return View{tmpl: landingTmpl, build: func(ctx context.Context) any {
		return landingData{
			Page:          newPage(ctx, "AppTitle", ""),
			Tagline:       i18n.T(ctx, "Tagline"),
			Lead:          i18n.T(ctx, "LandingLead"),
			SignInLabel:   i18n.T(ctx, "SignIn"),
			RegisterLabel: i18n.T(ctx, "Register"),
		}
	}}
}

type loginData struct {
	Page
	EmailLabel    string
	PasswordLabel string
	RoleLabel     string
	Roles         []optionItem
	SubmitLabel   string
	NoAccount     string
	RegisterLabel string
}

// Login renders the sign-in form. errMsg and notice are already translated.
func Login(errMsg, notice string) View {
	return View{tmpl: loginTmpl, build: func(ctx context.Context) any {
		d := loginData{
			Page:          newPage(ctx, "LoginTitle", "/login"),
			EmailLabel:    i18n.T(ctx, "Email"),
			PasswordLabel: i18n.T(ctx, "Password"),
			RoleLabel:     i18n.T(ctx, "RoleLabel"),
			Roles: []optionItem{
				{Value: "student", Label: i18n.T(ctx, "RoleStudent"), Selected: true},
				{Value: "teacher", Label: i18n.T(ctx, "RoleTeacher")},
			},
			SubmitLabel:   i18n.T(ctx, "SignIn"),
			NoAccount:     i18n.T(ctx, "NoAccount"),
			RegisterLabel: i18n.T(ctx, "Register"),
		}
		d.Error = errMsg
		d.Notice = notice
		return d
	}}
}

// RegisterForm repopulates the registration form after a failed submit.
type RegisterForm struct {
	Name  string
	Email string
}

type registerData struct {
	Page
	NameLabel     string
	EmailLabel    string
	PasswordLabel string
	ConfirmLabel  string
	SubmitLabel   string
	HaveAccount   string
	SignInLabel   string
	Form          RegisterForm
}

// Register renders the student sign-up form.
func Register(errMsg string, form RegisterForm) View {
	return View{tmpl: registerTmpl, build: func(ctx context.Context) any {
		d := registerData{
			Page:          newPage(ctx, "RegisterTitle", "/register"),
			NameLabel:     i18n.T(ctx, "Name"),
			EmailLabel:    i18n.T(ctx, "Email"),
			PasswordLabel: i18n.T(ctx, "Password"),
			ConfirmLabel:  i18n.T(ctx, "ConfirmPassword"),
			SubmitLabel:   i18n.T(ctx, "Register"),
			HaveAccount:   i18n.T(ctx, "HaveAccount"),
			SignInLabel:   i18n.T(ctx, "SignIn"),
			Form:          form,
		}
		d.Error = errMsg
		return d
	}}
}

type dashboardData struct {
	Page
	Welcome       string
	Cards         []statCard
	RecentHeading string
	ViewAllLabel  string
	ViewAllURL    string
	Recent        *doubtTable
}

func welcome(ctx context.Context) string {
	name := ""
	if sess := model.SessionFromContext(ctx); sess != nil {
		name = sess.Name
	}
	return i18n.Td(ctx, "WelcomeBack", map[string]any{"Name": name})
}

// StudentDashboard shows a student's stats and most recent doubts.
func StudentDashboard(stats model.StudentStats, recent []model.Doubt, notice string) View {
	return View{tmpl: dashboardTmpl, build: func(ctx context.Context) any {
		table := buildDoubtTable(ctx, recent, false, "EmptyStudentDoubts")
		d := dashboardData{
			Page:    newPage(ctx, "NavDashboard", "/student"),
			Welcome: welcome(ctx),
			Cards: []statCard{
				{Label: i18n.T(ctx, "StatTotalDoubts"), Value: strconv.Itoa(stats.Total)},
				{Label: i18n.T(ctx, "StatPending"), Value: strconv.Itoa(stats.Pending)},
				{Label: i18n.T(ctx, "StatResolved"), Value: strconv.Itoa(stats.Resolved)},
			},
			RecentHeading: i18n.T(ctx, "RecentDoubts"),
			ViewAllLabel:  i18n.T(ctx, "ViewAll"),
			ViewAllURL:    "/student/doubts",
			Recent:        &table,
		}
		d.Notice = notice
		return d
	}}
}

// TeacherDashboard shows queue stats and the newest pending doubts.
func TeacherDashboard(stats model.TeacherStats, recent []model.Doubt) View {
	return View{tmpl: dashboardTmpl, build: func(ctx context.Context) any {
		table := buildDoubtTable(ctx, recent, true, "EmptyQueueClear")
		return dashboardData{
			Page:    newPage(ctx, "NavDashboard", "/teacher"),
			Welcome: welcome(ctx),
			Cards: []statCard{
				{Label: i18n.T(ctx, "StatPending"), Value: strconv.Itoa(stats.Pending)},
				{Label: i18n.T(ctx, "StatInProgress"), Value: strconv.Itoa(stats.InProgress)},
				{Label: i18n.T(ctx, "StatResolved"), Value: strconv.Itoa(stats.Resolved)},
				{Label: i18n.T(ctx, "StatMyResponses"), Value: strconv.Itoa(stats.MyResponses)},
			},
			RecentHeading: i18n.T(ctx, "PendingDoubts"),
			ViewAllLabel:  i18n.T(ctx, "ViewAll"),
			ViewAllURL:    "/teacher/doubts",
			Recent:        &table,
		}
	}}
}

// AdminDashboard shows platform-wide stats.
func AdminDashboard(stats model.AdminStats, notice string) View {
	return View{tmpl: dashboardTmpl, build: func(ctx context.Context) any {
		d := dashboardData{
			Page:    newPage(ctx, "NavDashboard", "/admin"),
			Welcome: welcome(ctx),
			Cards: []statCard{
				{Label: i18n.T(ctx, "StatStudents"), Value: strconv.Itoa(stats.Students)},
				{Label: i18n.T(ctx, "StatTeachers"), Value: strconv.Itoa(stats.Teachers)},
				{Label: i18n.T(ctx, "StatTotalDoubts"), Value: strconv.Itoa(stats.TotalDoubts)},
				{Label: i18n.T(ctx, "StatResolved"), Value: strconv.Itoa(stats.Resolved)},
				{Label: i18n.T(ctx, "StatPending"), Value: strconv.Itoa(stats.Pending)},
				{Label: i18n.T(ctx, "StatResolutionRate"), Value: fmt.Sprintf("%d%%", stats.ResolutionPct)},
			},
		}
		d.Notice = notice
		return d
	}}
}

type doubtListData struct {
	Page
	FilterLabel   string
	FilterOptions []optionItem
	FilterAction  string
	ApplyLabel    string
	Table         doubtTable
	AskCTAURL     string
	AskCTALabel   string
}

// emptyListID picks the zero-state message for a doubt list. A filtered
// list that comes back empty reads differently from an empty account.
func emptyListID(filter, unfilteredID string) string {
	if filter == "" || filter == "All" {
		return unfilteredID
	}
	return "EmptyFilteredDoubts"
}

// StudentDoubts lists the signed-in student's doubts with a status filter.
// filter is the wire value, "All" or empty meaning unfiltered.
func StudentDoubts(doubts []model.Doubt, filter, notice string) View {
	return View{tmpl: doubtListTmpl, build: func(ctx context.Context) any {
		d := doubtListData{
			Page:          newPage(ctx, "NavMyDoubts", "/student/doubts"),
			FilterLabel:   i18n.T(ctx, "FilterLabel"),
			FilterOptions: statusOptions(ctx, filter, true),
			FilterAction:  "/student/doubts",
			ApplyLabel:    i18n.T(ctx, "Apply"),
			Table:         buildDoubtTable(ctx, doubts, false, emptyListID(filter, "EmptyStudentDoubts")),
			AskCTAURL:     "/student/ask",
			AskCTALabel:   i18n.T(ctx, "AskFirstDoubt"),
		}
		d.Notice = notice
		return d
	}}
}

// TeacherDoubts lists every student's doubts for teachers and admins.
func TeacherDoubts(doubts []model.Doubt, filter, notice string) View {
	return View{tmpl: doubtListTmpl, build: func(ctx context.Context) any {
		d := doubtListData{
			Page:          newPage(ctx, "NavAllDoubts", "/teacher/doubts"),
			FilterLabel:   i18n.T(ctx, "FilterLabel"),
			FilterOptions: statusOptions(ctx, filter, true),
			FilterAction:  "/teacher/doubts",
			ApplyLabel:    i18n.T(ctx, "Apply"),
			Table:         buildDoubtTable(ctx, doubts, true, emptyListID(filter, "EmptyTeacherDoubts")),
		}
		d.Notice = notice
		return d
	}}
}

// AskForm repopulates the ask form after a failed submit.
type AskForm struct {
	Subject string
	Text    string
}

type askData struct {
	Page
	SubjectLabel    string
	SubjectPrompt   string
	Subjects        []optionItem
	TextLabel       string
	TextPlaceholder string
	SubmitLabel     string
	Text            string
}

// AskDoubt renders the new-doubt form.
func AskDoubt(errMsg string, form AskForm) View {
	return View{tmpl: askTmpl, build: func(ctx context.Context) any {
		subjects := make([]optionItem, 0, len(Subjects))
		for _, s := range Subjects {
			subjects = append(subjects, optionItem{Value: s, Label: s, Selected: s == form.Subject})
		}
		d := askData{
			Page:            newPage(ctx, "AskDoubtTitle", "/student/ask"),
			SubjectLabel:    i18n.T(ctx, "SubjectLabel"),
			SubjectPrompt:   i18n.T(ctx, "SelectSubject"),
			Subjects:        subjects,
			TextLabel:       i18n.T(ctx, "DoubtTextLabel"),
			TextPlaceholder: i18n.T(ctx, "DoubtTextPlaceholder"),
			SubmitLabel:     i18n.T(ctx, "SubmitDoubt"),
			Text:            form.Text,
		}
		d.Error = errMsg
		return d
	}}
}

type responseItem struct {
	Teacher string
	Date    string
	Text    string
}

type respondForm struct {
	Action        string
	Label         string
	StatusLabel   string
	StatusOptions []optionItem
	SubmitLabel   string
	Draft         string
	SuggestAction string
	SuggestLabel  string
}

type detailData struct {
	Page
	BackLabel        string
	BackURL          string
	Subject          string
	StatusLabel      string
	StatusClass      string
	AskedBy          string
	Asked            string
	Text             string
	ResponsesHeading string
	Responses        []responseItem
	Awaiting         string
	Respond          *respondForm
}

// DetailOptions controls the response form on the doubt detail page.
// Status preselects the status dropdown; empty means Resolved.
type DetailOptions struct {
	CanRespond     bool
	SuggestEnabled bool
	Draft          string
	Status         string
	Error          string
	Notice         string
}

// DoubtDetail renders one doubt with its full response thread.
func DoubtDetail(detail model.DoubtDetail, opts DetailOptions) View {
	return View{tmpl: detailTmpl, build: func(ctx context.Context) any {
		sess := model.SessionFromContext(ctx)
		backURL := "/teacher/doubts"
		if sess != nil && sess.Role == model.RoleStudent {
			backURL = "/student/doubts"
		}
		d := detailData{
			Page:             newPage(ctx, "DoubtDetailTitle", ""),
			BackLabel:        i18n.T(ctx, "BackToList"),
			BackURL:          backURL,
			Subject:          detail.Doubt.Subject,
			StatusLabel:      statusLabel(ctx, detail.Doubt.Status),
			StatusClass:      statusClass(detail.Doubt.Status),
			AskedBy:          i18n.Td(ctx, "AskedBy", map[string]any{"Name": detail.Doubt.StudentName}),
			Asked:            detail.Doubt.CreatedAt.Format(dateTimeFormat),
			Text:             detail.Doubt.Text,
			ResponsesHeading: i18n.Tp(ctx, "ResponsesHeading", len(detail.Responses)),
		}
		d.Error = opts.Error
		d.Notice = opts.Notice
		for _, r := range detail.Responses {
			d.Responses = append(d.Responses, responseItem{
				Teacher: r.TeacherName,
				Date:    r.CreatedAt.Format(dateTimeFormat),
				Text:    r.Text,
			})
		}
		if len(d.Responses) == 0 {
			d.Awaiting = i18n.T(ctx, "AwaitingResponse")
		}
		if opts.CanRespond {
			selected := string(model.StatusResolved)
			if opts.Status != "" {
				selected = opts.Status
			}
			// Responding never moves a doubt back to Pending.
			var statuses []optionItem
			for _, s := range []model.DoubtStatus{model.StatusInProgress, model.StatusResolved} {
				statuses = append(statuses, optionItem{
					Value:    string(s),
					Label:    statusLabel(ctx, s),
					Selected: selected == string(s),
				})
			}
			f := &respondForm{
				Action:        fmt.Sprintf("/doubts/%d/respond", detail.Doubt.ID),
				Label:         i18n.T(ctx, "ResponseLabel"),
				StatusLabel:   i18n.T(ctx, "SetStatus"),
				StatusOptions: statuses,
				SubmitLabel:   i18n.T(ctx, "SubmitResponse"),
				Draft:         opts.Draft,
			}
			if opts.SuggestEnabled {
				f.SuggestAction = fmt.Sprintf("/doubts/%d/suggest", detail.Doubt.ID)
				f.SuggestLabel = i18n.T(ctx, "SuggestDraft")
			}
			d.Respond = f
		}
		return d
	}}
}

type teacherRow struct {
	Name         string
	Subject      string
	Email        string
	DeleteAction string
	DeleteLabel  string
	ConfirmMsg   string
	AdminBadge   string
}

type adminTeachersData struct {
	Page
	AddHeading    string
	NameLabel     string
	SubjectLabel  string
	EmailLabel    string
	PasswordLabel string
	AddLabel      string
	ColName       string
	ColSubject    string
	ColEmail      string
	ColActions    string
	Rows          []teacherRow
	Empty         string
}

// AdminTeachers renders the teacher roster with the add form.
func AdminTeachers(teachers []model.Teacher, errMsg, notice string) View {
	return View{tmpl: adminTeachersTmpl, build: func(ctx context.Context) any {
		d := adminTeachersData{
			Page:          newPage(ctx, "NavTeachers", "/admin/teachers"),
			AddHeading:    i18n.T(ctx, "AddTeacherTitle"),
			NameLabel:     i18n.T(ctx, "Name"),
			SubjectLabel:  i18n.T(ctx, "SubjectLabel"),
			EmailLabel:    i18n.T(ctx, "Email"),
			PasswordLabel: i18n.T(ctx, "Password"),
			AddLabel:      i18n.T(ctx, "AddTeacher"),
			ColName:       i18n.T(ctx, "ColName"),
			ColSubject:    i18n.T(ctx, "ColSubject"),
			ColEmail:      i18n.T(ctx, "ColEmail"),
			ColActions:    i18n.T(ctx, "ColActions"),
		}
		d.Error = errMsg
		d.Notice = notice
		if len(teachers) == 0 {
			d.Empty = i18n.T(ctx, "EmptyTeachers")
			return d
		}
		for _, t := range teachers {
			row := teacherRow{Name: t.Name, Subject: t.Subject, Email: t.Email}
			if t.IsAdmin {
				row.AdminBadge = i18n.T(ctx, "AdminBadge")
			} else {
				row.DeleteAction = fmt.Sprintf("/admin/teachers/%d/delete", t.ID)
				row.DeleteLabel = i18n.T(ctx, "Delete")
				row.ConfirmMsg = i18n.Td(ctx, "ConfirmDeleteTeacher", map[string]any{"Name": t.Name})
			}
			d.Rows = append(d.Rows, row)
		}
		return d
	}}
}

type studentRow struct {
	Name   string
	Email  string
	Doubts int
	Joined string
}

type adminStudentsData struct {
	Page
	ColName   string
	ColEmail  string
	ColDoubts string
	ColJoined string
	Rows      []studentRow
	Empty     string
}

// AdminStudents renders the student roster.
func AdminStudents(students []model.Student) View {
	return View{tmpl: adminStudentsTmpl, build: func(ctx context.Context) any {
		d := adminStudentsData{
			Page:      newPage(ctx, "NavStudents", "/admin/students"),
			ColName:   i18n.T(ctx, "ColName"),
			ColEmail:  i18n.T(ctx, "ColEmail"),
			ColDoubts: i18n.T(ctx, "ColDoubts"),
			ColJoined: i18n.T(ctx, "ColJoined"),
		}
		if len(students) == 0 {
			d.Empty = i18n.T(ctx, "EmptyStudents")
			return d
		}
		for _, s := range students {
			d.Rows = append(d.Rows, studentRow{
				Name:   s.Name,
				Email:  s.Email,
				Doubts: s.DoubtCount,
				Joined: s.CreatedAt.Format(dateFormat),
			})
		}
		return d
	}}
}
