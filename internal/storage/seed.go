package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Seed populates an empty database with sample users, templates and
// workflows so the hub is usable out of the box. It is a no-op when any
// workflow already exists.
func (s *Store) Seed() error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM workflows`).Scan(&count); err != nil {
		return fmt.Errorf("checking existing workflows: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()

	users := []User{
		{ID: uuid.New().String(), Name: "John Employer", Email: "employer@example.com", Phone: "9876543210", Role: "employer", Language: "en", Status: "active"},
		{ID: uuid.New().String(), Name: "Sarah Maid", Email: "maid@example.com", Phone: "9123456789", Role: "employee", Language: "hindi", Status: "active"},
		{ID: uuid.New().String(), Name: "Admin User", Email: "admin@example.com", Phone: "8765432109", Role: "admin", Language: "en", Status: "active"},
	}
	for _, u := range users {
		u.CreatedAt = now
		u.UpdatedAt = now
		if err := s.CreateUser(u); err != nil {
			return fmt.Errorf("seeding user %s: %w", u.Email, err)
		}
	}

	templates := []Template{
		{ID: uuid.New().String(), Name: "Welcome", Type: "welcome", Language: "en", Channel: "whatsapp",
			Content: "Welcome {name}! We are excited to have you. Please complete your profile."},
		{ID: uuid.New().String(), Name: "Welcome (Hindi)", Type: "welcome", Language: "hindi", Channel: "whatsapp",
			Content: "{name}, आपका स्वागत है! हम आपके साथ काम करने के लिए उत्साहित हैं।"},
		{ID: uuid.New().String(), Name: "Salary Reminder", Type: "salary_reminder", Language: "en", Channel: "whatsapp",
			Content: "Hi {name}, your salary will be credited on the 5th of this month."},
		{ID: uuid.New().String(), Name: "Salary Reminder (Hindi)", Type: "salary_reminder", Language: "hindi", Channel: "whatsapp",
			Content: "{name}, आपका वेतन इस महीने की 5 तारीख को जमा किया जाएगा।"},
		{ID: uuid.New().String(), Name: "Document Request", Type: "document_request", Language: "en", Channel: "email",
			Subject: "Document Verification Required",
			Content: "Hi {name}, please upload your documents to complete verification."},
		{ID: uuid.New().String(), Name: "Payment Support", Type: "payment_support", Language: "en", Channel: "voice",
			Content: "Hi {name}, we are here to help with your payment questions."},
	}
	for i := range templates {
		templates[i].CreatedAt = now
		if err := s.CreateTemplate(templates[i]); err != nil {
			return fmt.Errorf("seeding template %s: %w", templates[i].Name, err)
		}
	}

	welcome := templates[0]
	salary := templates[2]
	document := templates[4]

	workflows := []struct {
		wf    Workflow
		steps []WorkflowStep
	}{
		{
			wf: Workflow{ID: uuid.New().String(), Name: "Onboarding", Type: "onboarding",
				Description: "Welcome and profile completion", TriggerType: "signup", TriggerValue: "new_user", IsActive: true},
			steps: []WorkflowStep{
				{StepNumber: 1, ActionType: ActionSendMessage, TemplateID: welcome.ID},
				{StepNumber: 2, ActionType: ActionWait, WaitDuration: 3600},
				{StepNumber: 3, ActionType: ActionCheckResponse, NextOnFailure: 5},
				{StepNumber: 4, ActionType: ActionSendMessage, TemplateID: document.ID, NextOnSuccess: 6},
				{StepNumber: 5, ActionType: ActionEscalate},
			},
		},
		{
			wf: Workflow{ID: uuid.New().String(), Name: "Salary Reminder", Type: "salary_reminder",
				Description: "Monthly salary credit notification", TriggerType: "scheduled", TriggerValue: "5th_of_month", IsActive: true},
			steps: []WorkflowStep{
				{StepNumber: 1, ActionType: ActionSendMessage, TemplateID: salary.ID},
			},
		},
		{
			wf: Workflow{ID: uuid.New().String(), Name: "Document Collection", Type: "document_collection",
				Description: "Collect verification documents", TriggerType: "manual", TriggerValue: "admin_trigger", IsActive: true},
			steps: []WorkflowStep{
				{StepNumber: 1, ActionType: ActionSendMessage, TemplateID: document.ID},
				{StepNumber: 2, ActionType: ActionWait, WaitDuration: 7200},
				{StepNumber: 3, ActionType: ActionCheckResponse, NextOnFailure: 4},
			},
		},
	}
	for _, w := range workflows {
		w.wf.CreatedAt = now
		for i := range w.steps {
			w.steps[i].ID = uuid.New().String()
			w.steps[i].WorkflowID = w.wf.ID
		}
		if err := s.CreateWorkflow(w.wf, w.steps); err != nil {
			return fmt.Errorf("seeding workflow %s: %w", w.wf.Name, err)
		}
	}

	return nil
}
