package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/relay/internal/classify"
	"github.com/kalambet/relay/internal/dispatch"
	"github.com/kalambet/relay/internal/engine"
	"github.com/kalambet/relay/internal/speech"
	"github.com/kalambet/relay/internal/storage"
)

const (
	testToken       = "test-token-12345"
	testVerifyToken = "verify-secret"
)

func setupAppHandler(t *testing.T) (http.Handler, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	router := dispatch.NewRouter()
	router.Register(dispatch.ChannelWhatsApp, dispatch.Simulated{Channel: dispatch.ChannelWhatsApp})
	router.Register(dispatch.ChannelEmail, dispatch.Simulated{Channel: dispatch.ChannelEmail})

	classifier := classify.New(0)
	eng := engine.New(store, router, classifier, speech.Simulated{})

	handler := NewAppHandler(AppDeps{
		Store:       store,
		Engine:      eng,
		Classifier:  classifier,
		Speech:      speech.Simulated{},
		Token:       testToken,
		VerifyToken: testVerifyToken,
	})
	return handler, store
}

func authReq(method, url, body, token string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func seedUser(t *testing.T, store *storage.Store, phone string) storage.User {
	t.Helper()
	now := time.Now().UTC()
	user := storage.User{
		ID:        uuid.NewString(),
		Name:      "Ravi",
		Email:     "ravi@example.com",
		Phone:     phone,
		Role:      "driver",
		Language:  "en",
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreateUser(user); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return user
}

func seedWorkflow(t *testing.T, store *storage.Store) (storage.Workflow, storage.Template) {
	t.Helper()
	tmpl := storage.Template{
		ID:        uuid.NewString(),
		Name:      "Welcome",
		Type:      "onboarding",
		Language:  "en",
		Content:   "Hello {name}",
		Channel:   dispatch.ChannelWhatsApp,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.CreateTemplate(tmpl); err != nil {
		t.Fatalf("seeding template: %v", err)
	}

	workflow := storage.Workflow{
		ID:          uuid.NewString(),
		Name:        "Onboarding",
		Type:        "onboarding",
		TriggerType: "manual",
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	steps := []storage.WorkflowStep{
		{ID: uuid.NewString(), WorkflowID: workflow.ID, StepNumber: 1, ActionType: storage.ActionSendMessage, TemplateID: tmpl.ID},
		{ID: uuid.NewString(), WorkflowID: workflow.ID, StepNumber: 2, ActionType: storage.ActionCheckResponse},
	}
	if err := store.CreateWorkflow(workflow, steps); err != nil {
		t.Fatalf("seeding workflow: %v", err)
	}
	return workflow, tmpl
}

func TestAuthRequired(t *testing.T) {
	h, _ := setupAppHandler(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/users", "", ""))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/users", "", "wrong-token"))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestHealthIsPublic(t *testing.T) {
	h, _ := setupAppHandler(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/health", "", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestCreateAndGetUser(t *testing.T) {
	h, _ := setupAppHandler(t)

	body := `{"name":"Lakshmi","phone":"+919900112233","role":"cook","language":"kannada"}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/users", body, testToken))
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body = %s", rr.Code, rr.Body.String())
	}

	var created storage.User
	json.NewDecoder(rr.Body).Decode(&created)
	if created.ID == "" || created.Status != "active" {
		t.Fatalf("created user = %+v", created)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/users/"+created.ID, "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/users/"+uuid.NewString(), "", testToken))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestCreateUserValidation(t *testing.T) {
	h, _ := setupAppHandler(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/users", `{"name":"NoPhone"}`, testToken))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestCreateWorkflowValidation(t *testing.T) {
	h, _ := setupAppHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing steps", `{"name":"Empty"}`},
		{"bad action", `{"name":"Bad","steps":[{"step_number":1,"action_type":"teleport"}]}`},
		{"send without template", `{"name":"Bad","steps":[{"step_number":1,"action_type":"send_message"}]}`},
		{"zero step number", `{"name":"Bad","steps":[{"step_number":0,"action_type":"wait"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, authReq(http.MethodPost, "/workflows", tt.body, testToken))
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body = %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestStartAndExecuteWorkflow(t *testing.T) {
	h, store := setupAppHandler(t)
	user := seedUser(t, store, "+919900112233")
	workflow, _ := seedWorkflow(t, store)

	body := fmt.Sprintf(`{"user_id":%q}`, user.ID)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/workflows/"+workflow.ID+"/start", body, testToken))
	if rr.Code != http.StatusCreated {
		t.Fatalf("start status = %d, want 201; body = %s", rr.Code, rr.Body.String())
	}

	var inst storage.WorkflowInstance
	json.NewDecoder(rr.Body).Decode(&inst)
	if inst.CurrentStep != 1 {
		t.Fatalf("CurrentStep = %d, want 1", inst.CurrentStep)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/instances/"+inst.ID+"/execute", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("execute status = %d, want 200; body = %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Instance storage.WorkflowInstance `json:"instance"`
	}
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Instance.CurrentStep != 2 {
		t.Errorf("CurrentStep after execute = %d, want 2", resp.Instance.CurrentStep)
	}
}

func TestStartWorkflowUnknownIDs(t *testing.T) {
	h, store := setupAppHandler(t)
	workflow, _ := seedWorkflow(t, store)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/workflows/"+workflow.ID+"/start", `{"user_id":"missing"}`, testToken))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown user: status = %d, want 400", rr.Code)
	}

	user := seedUser(t, store, "+911111111111")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/workflows/missing/start", fmt.Sprintf(`{"user_id":%q}`, user.ID), testToken))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown workflow: status = %d, want 400", rr.Code)
	}
}

func TestExecuteStepErrors(t *testing.T) {
	h, store := setupAppHandler(t)
	user := seedUser(t, store, "+919900112233")
	workflow, _ := seedWorkflow(t, store)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/instances/"+uuid.NewString()+"/execute", "", testToken))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing instance: status = %d, want 404", rr.Code)
	}

	inst := storage.WorkflowInstance{
		ID:          uuid.NewString(),
		WorkflowID:  workflow.ID,
		UserID:      user.ID,
		CurrentStep: 1,
		Status:      storage.InstancePaused,
		StartedAt:   time.Now().UTC(),
	}
	if err := store.CreateInstance(inst); err != nil {
		t.Fatalf("seeding instance: %v", err)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/instances/"+inst.ID+"/execute", "", testToken))
	if rr.Code != http.StatusConflict {
		t.Fatalf("paused instance: status = %d, want 409; body = %s", rr.Code, rr.Body.String())
	}

	orphan := storage.WorkflowInstance{
		ID:          uuid.NewString(),
		WorkflowID:  workflow.ID,
		UserID:      user.ID,
		CurrentStep: 99,
		Status:      storage.InstanceInProgress,
		StartedAt:   time.Now().UTC(),
	}
	if err := store.CreateInstance(orphan); err != nil {
		t.Fatalf("seeding instance: %v", err)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/instances/"+orphan.ID+"/execute", "", testToken))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("cursor with no step: status = %d, want 400; body = %s", rr.Code, rr.Body.String())
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	h, _ := setupAppHandler(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/analyze", `{"text":"I am done with the task"}`, testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rr.Code, rr.Body.String())
	}

	var result classify.Result
	json.NewDecoder(rr.Body).Decode(&result)
	if result.Intent != "completion" {
		t.Errorf("intent = %q, want completion", result.Intent)
	}
	if result.Language != "en" {
		t.Errorf("language = %q, want en", result.Language)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/analyze", `{"text":""}`, testToken))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty text: status = %d, want 400", rr.Code)
	}
}

func TestSendNotificationEndpoint(t *testing.T) {
	h, store := setupAppHandler(t)
	user := seedUser(t, store, "+919900112233")
	_, tmpl := seedWorkflow(t, store)

	body := fmt.Sprintf(`{"user_id":%q,"template_id":%q}`, user.ID, tmpl.ID)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/notifications/send", body, testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rr.Code, rr.Body.String())
	}

	var n storage.Notification
	json.NewDecoder(rr.Body).Decode(&n)
	if n.Status != storage.NotificationSent {
		t.Errorf("status = %q, want sent", n.Status)
	}
	if n.Content != "Hello Ravi" {
		t.Errorf("content = %q, want rendered template", n.Content)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/notifications/send", `{"user_id":"missing","template_id":"missing"}`, testToken))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown ids: status = %d, want 400", rr.Code)
	}
}

func TestAnalyticsEndpoint(t *testing.T) {
	h, store := setupAppHandler(t)
	seedUser(t, store, "+919900112233")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/analytics", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var snapshot storage.AnalyticsSnapshot
	json.NewDecoder(rr.Body).Decode(&snapshot)
	if snapshot.TotalUsers != 1 {
		t.Errorf("TotalUsers = %d, want 1", snapshot.TotalUsers)
	}
}

func TestSpeechEndpoints(t *testing.T) {
	h, _ := setupAppHandler(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/speech/transcribe", `{"audio_url":"https://cdn.example.com/a.ogg"}`, testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("transcribe status = %d, want 200; body = %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/speech/synthesize", `{"text":"hello","language":"hindi"}`, testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("synthesize status = %d, want 200; body = %s", rr.Code, rr.Body.String())
	}

	var syn speech.Synthesis
	json.NewDecoder(rr.Body).Decode(&syn)
	if syn.Language != "hindi" {
		t.Errorf("language = %q, want hindi", syn.Language)
	}
}

func TestSimulateInboundAudio(t *testing.T) {
	h, store := setupAppHandler(t)
	seedUser(t, store, "+919900112233")

	rr := httptest.NewRecorder()
	body := `{"from":"+919900112233","channel":"whatsapp","is_audio":true,"audio_url":"https://cdn.example.com/voice.ogg"}`
	h.ServeHTTP(rr, authReq(http.MethodPost, "/messages/inbound", body, testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rr.Code, rr.Body.String())
	}

	convs, err := store.ListConversations(10)
	if err != nil {
		t.Fatalf("listing conversations: %v", err)
	}
	if len(convs) == 0 {
		t.Fatal("expected an inbound conversation record")
	}

	var inbound *storage.Conversation
	for i := range convs {
		if convs[i].MessageType == storage.MessageInbound {
			inbound = &convs[i]
		}
	}
	if inbound == nil {
		t.Fatal("no inbound conversation recorded")
	}
	if !inbound.IsAudio {
		t.Error("IsAudio not recorded for audio message")
	}
	if inbound.AudioURL != "https://cdn.example.com/voice.ogg" {
		t.Errorf("AudioURL = %q, want the posted reference", inbound.AudioURL)
	}
	if inbound.Content == "" {
		t.Error("transcript missing from recorded content")
	}
}
