package people

import "github.com/jask/admindesk/internal/form"

// Form returns the person edit form.
func Form() form.Schema {
	return form.New("Person").
		Text(FieldFirstName, "First name", true).
		Text(FieldLastName, "Last name", true).
		Email(FieldEmail, "Email", true).
		Text(FieldLogin, "Login", true).
		Select(FieldRole, "Role", form.Values(RoleAdmin, RoleEditor, RoleViewer, RoleAnalyst)).
		Select(FieldStatus, "Status", form.Values(Statuses...)).
		TimeZone(FieldTimeZone, "Time zone").
		DateFormat(FieldDateFormat, "Date format").
		TimeFormat(FieldTimeFormat, "Time format").
		Build()
}

// FormValues lays p out the way the person form submits it.
func FormValues(p Person) map[string]string {
	return map[string]string{
		FieldFirstName:  p.FirstName,
		FieldLastName:   p.LastName,
		FieldEmail:      p.Email,
		FieldLogin:      p.Login,
		FieldRole:       string(p.Role),
		FieldStatus:     string(p.Status),
		FieldTimeZone:   p.TimeZone,
		FieldDateFormat: p.DateFormat,
		FieldTimeFormat: p.TimeFormat,
	}
}
