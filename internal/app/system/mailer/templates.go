// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/dalemusser/cityfix/internal/app/system/notify"
)

// AssignmentEmailData holds data for the assignment templates.
type AssignmentEmailData struct {
	SiteName       string
	ComplaintID    string
	ComplaintTitle string
	Address        string
	WorkerName     string
	Link           string
}

// Render builds the named template for data. Unknown names are an error.
func Render(cfg Config, name string, data map[string]string) (Email, error) {
	d := AssignmentEmailData{
		SiteName:       cfg.SiteName,
		ComplaintID:    data[notify.KeyComplaintID],
		ComplaintTitle: data[notify.KeyComplaintTitle],
		Address:        data[notify.KeyAddress],
		WorkerName:     data[notify.KeyWorkerName],
		Link:           data[notify.KeyLink],
	}
	if d.SiteName == "" {
		d.SiteName = "CityFix"
	}
	if d.Link == "" && cfg.BaseURL != "" && d.ComplaintID != "" {
		d.Link = cfg.BaseURL + "/complaints/" + d.ComplaintID
	}
	switch name {
	case notify.TemplateAssignedWorker:
		return BuildWorkerAssignedEmail(d), nil
	case notify.TemplateAssignedCitizen:
		return BuildCitizenAssignedEmail(d), nil
	}
	return Email{}, fmt.Errorf("mailer: unknown template %q", name)
}

// BuildWorkerAssignedEmail tells a worker a complaint is now theirs.
func BuildWorkerAssignedEmail(data AssignmentEmailData) Email {
	var text bytes.Buffer
	fmt.Fprintf(&text, "Hello %s,\n\n", data.WorkerName)
	fmt.Fprintf(&text, "You have been assigned complaint %q.\n", data.ComplaintTitle)
	if data.Address != "" {
		fmt.Fprintf(&text, "Location: %s\n", data.Address)
	}
	if data.Link != "" {
		text.WriteString("\nOpen it here:\n" + data.Link + "\n")
	}
	return Email{
		Subject:  fmt.Sprintf("[%s] New assignment: %s", data.SiteName, data.ComplaintTitle),
		TextBody: text.String(),
		HTMLBody: renderHTML(data, "You have been assigned a complaint.", "View complaint"),
	}
}

// BuildCitizenAssignedEmail tells the reporter work has started.
func BuildCitizenAssignedEmail(data AssignmentEmailData) Email {
	var text bytes.Buffer
	fmt.Fprintf(&text, "Your complaint %q is now in progress.\n", data.ComplaintTitle)
	if data.WorkerName != "" {
		fmt.Fprintf(&text, "It has been assigned to %s.\n", data.WorkerName)
	}
	if data.Link != "" {
		text.WriteString("\nTrack it here:\n" + data.Link + "\n")
	}
	return Email{
		Subject:  fmt.Sprintf("[%s] Your complaint is in progress", data.SiteName),
		TextBody: text.String(),
		HTMLBody: renderHTML(data, "Your complaint is now in progress.", "Track complaint"),
	}
}

var assignmentTmpl = template.Must(template.New("assignment").Parse(assignmentHTMLTemplate))

func renderHTML(data AssignmentEmailData, headline, button string) string {
	var buf bytes.Buffer
	_ = assignmentTmpl.Execute(&buf, struct {
		AssignmentEmailData
		Headline string
		Button   string
	}{data, headline, button})
	return buf.String()
}

const assignmentHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.SiteName}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #0f766e;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151;">{{.Headline}}</p>
              <div style="background-color: #f3f4f6; border-radius: 8px; padding: 16px; margin-bottom: 24px;">
                <p style="margin: 0; font-size: 18px; font-weight: 600; color: #1f2937;">{{.ComplaintTitle}}</p>
                {{if .Address}}<p style="margin: 8px 0 0; font-size: 14px; color: #6b7280;">{{.Address}}</p>{{end}}
                {{if .WorkerName}}<p style="margin: 8px 0 0; font-size: 14px; color: #6b7280;">Assigned to {{.WorkerName}}</p>{{end}}
              </div>
              {{if .Link}}
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.Link}}" style="display: inline-block; padding: 14px 32px; background-color: #0f766e; color: #ffffff; text-decoration: none; font-size: 16px; border-radius: 6px;">{{.Button}}</a>
                  </td>
                </tr>
              </table>
              {{end}}
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
