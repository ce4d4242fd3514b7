// Package conversation implements the scripted lead-capture dialogue as a
// finite-state value advanced by a single pure reducer.
package conversation

// Field names one answer slot of the conversation record.
type Field string

const (
	FieldName    Field = "name"
	FieldSphere  Field = "sphere"
	FieldProcess Field = "process"
	FieldContact Field = "contact"
)

// Question pairs a record field with the agent prompt that asks for it.
type Question struct {
	Field  Field
	Prompt string
}

// Script is the ordered question table. The flow length is len(Script).
var Script = []Question{
	{Field: FieldName, Prompt: "Вітаю! Я асистент SM Agents Consulting. Як до вас звертатися?"},
	{Field: FieldSphere, Prompt: "Приємно познайомитись! У якій сфері працює ваш бізнес?"},
	{Field: FieldProcess, Prompt: "Який процес ви хотіли б автоматизувати в першу чергу?"},
	{Field: FieldContact, Prompt: "Залиште зручний контакт (Telegram, телефон або email), і ми повернемося з планом."},
}

// Fixed agent replies appended after a submission attempt.
const (
	ThankYouMessage = "Дякуємо! Заявку отримано, ми звʼяжемося з вами найближчим часом."
	FailureMessage  = "Не вдалося надіслати заявку. Ваші відповіді збережено, спробуйте ще раз."
)

// Record is the four-field struct collected from the visitor.
type Record struct {
	Name    string `json:"name"`
	Sphere  string `json:"sphere"`
	Process string `json:"process"`
	Contact string `json:"contact"`
}

// Get returns the value stored for f.
func (r Record) Get(f Field) string {
	switch f {
	case FieldName:
		return r.Name
	case FieldSphere:
		return r.Sphere
	case FieldProcess:
		return r.Process
	case FieldContact:
		return r.Contact
	}
	return ""
}

func (r Record) with(f Field, value string) Record {
	switch f {
	case FieldName:
		r.Name = value
	case FieldSphere:
		r.Sphere = value
	case FieldProcess:
		r.Process = value
	case FieldContact:
		r.Contact = value
	}
	return r
}
