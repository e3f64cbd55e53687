package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/jonathan/job-scout/internal/db"
)

const matchEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; color: #2d3748; }
        .job { margin: 20px 0; padding: 15px; border: 1px solid #ddd; border-radius: 5px; }
        .title { color: #2c5282; font-size: 18px; margin-bottom: 5px; }
        .company { color: #4a5568; font-size: 16px; font-weight: bold; margin-bottom: 5px; }
        .meta { color: #718096; font-size: 14px; margin-bottom: 5px; }
        .salary { color: #276749; font-size: 14px; }
    </style>
</head>
<body>
    <p>Hi {{.UserName}},</p>
    <p>Your search profile <strong>{{.ProfileName}}</strong> matched a new posting:</p>
    <div class="job">
        <div class="title">{{.Posting.Title}}</div>
        <div class="company">{{.Posting.Company}}</div>
        {{if .Posting.Location}}<div class="meta">Location: {{.Posting.Location}}</div>{{end}}
        {{if ne .Posting.JobType "unknown"}}<div class="meta">Work type: {{.Posting.JobType}}</div>{{end}}
        {{if .Salary}}<div class="salary">Salary: {{.Salary}}</div>{{end}}
        <div class="meta">Source: {{.Posting.Source}}</div>
        {{if .Posting.ApplicationURL}}<p><a href="{{.Posting.ApplicationURL}}">View and apply</a></p>{{end}}
    </div>
</body>
</html>
`

var matchEmail = template.Must(template.New("match").Parse(matchEmailTemplate))

// RenderMatchEmail produces the subject and HTML body for one match alert.
func RenderMatchEmail(user db.User, profile db.SearchProfile, posting db.JobPosting) (subject, body string, err error) {
	subject = fmt.Sprintf("New job match: %s at %s", posting.Title, posting.Company)

	data := struct {
		UserName    string
		ProfileName string
		Posting     db.JobPosting
		Salary      string
	}{
		UserName:    user.Name,
		ProfileName: profile.Name,
		Posting:     posting,
		Salary:      formatSalary(posting.SalaryMin, posting.SalaryMax),
	}

	var buf bytes.Buffer
	if err := matchEmail.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("failed to render match email: %w", err)
	}
	return subject, buf.String(), nil
}

func formatSalary(min, max *float64) string {
	switch {
	case min == nil && max == nil:
		return ""
	case min == nil:
		return fmt.Sprintf("up to %s", formatAmount(*max))
	case max == nil:
		return fmt.Sprintf("from %s", formatAmount(*min))
	case *min == *max:
		return formatAmount(*min)
	default:
		return fmt.Sprintf("%s - %s", formatAmount(*min), formatAmount(*max))
	}
}

// formatAmount renders a salary figure with thousands separators.
func formatAmount(v float64) string {
	n := int64(v)
	s := fmt.Sprintf("%d", n)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return "$" + strings.Join(parts, ",")
}
