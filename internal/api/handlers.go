package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/opsmind/backend/internal/auth"
	"github.com/opsmind/backend/internal/core"
	"github.com/opsmind/backend/internal/ocr"
	"github.com/opsmind/backend/internal/prompts"
	"github.com/opsmind/backend/internal/store"
	"github.com/opsmind/backend/internal/vapi"
)

// maxUploadBytes caps the in-memory portion of multipart parsing.
const maxUploadBytes = 32 << 20

type APIHandler struct {
	agentService *core.AgentService
	registry     *core.Registry
	dbStore      *store.SQLiteStore

	jwtSecret      string
	defaultPhoneID string
}

func NewAPIHandler(agentService *core.AgentService, registry *core.Registry, dbStore *store.SQLiteStore, jwtSecret, defaultPhoneID string) *APIHandler {
	return &APIHandler{
		agentService:   agentService,
		registry:       registry,
		dbStore:        dbStore,
		jwtSecret:      jwtSecret,
		defaultPhoneID: defaultPhoneID,
	}
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if _, err := auth.ValidateJWT(h.jwtSecret, tokenString); err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body: "+err.Error(), http.StatusBadRequest)
		return
	}

	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	tel := r.PostFormValue("tel")
	if email == "" || password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		log.Printf("Error hashing password for %s: %v", email, err)
		http.Error(w, "Failed to process password", http.StatusInternalServerError)
		return
	}

	user, err := h.dbStore.CreateUser(email, tel, hashedPassword)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			http.Error(w, "Email already exists", http.StatusBadRequest)
			return
		}
		log.Printf("Error creating user %s: %v", email, err)
		http.Error(w, "Signup failed", http.StatusInternalServerError)
		return
	}

	// Link the shared provisioning number so a fresh account can
	// receive test calls right away. Not worth failing signup over.
	if h.defaultPhoneID != "" {
		if _, err := h.dbStore.InsertPhoneRecord(user.ID, h.defaultPhoneID); err != nil {
			log.Printf("Could not link default phone %s to user %d: %v", h.defaultPhoneID, user.ID, err)
		}
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{"message": "User created", "user_id": user.ID})
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body: "+err.Error(), http.StatusBadRequest)
		return
	}

	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.dbStore.GetUserByEmail(email)
	if err != nil {
		log.Printf("Error getting user %s: %v", email, err)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if user == nil || !auth.CheckPasswordHash(password, user.PasswordHash) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateJWT(h.jwtSecret, user.ID)
	if err != nil {
		log.Printf("Error generating JWT for user %d: %v", user.ID, err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]any{"token": token, "user": user})
}

func (h *APIHandler) CreateAgentHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart body: "+err.Error(), http.StatusBadRequest)
		return
	}

	agentName := r.FormValue("agent_name")
	firstMessage := r.FormValue("first_message")
	systemPrompt := r.FormValue("system_prompt")
	userID, err := strconv.ParseInt(r.FormValue("user_id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user_id", http.StatusBadRequest)
		return
	}
	if agentName == "" || firstMessage == "" || systemPrompt == "" {
		http.Error(w, "agent_name, first_message and system_prompt are required", http.StatusBadRequest)
		return
	}

	var files []core.UploadedFile
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["files"] {
			f, err := header.Open()
			if err != nil {
				http.Error(w, "Failed to read uploaded file "+header.Filename, http.StatusBadRequest)
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				http.Error(w, "Failed to read uploaded file "+header.Filename, http.StatusBadRequest)
				return
			}
			files = append(files, core.UploadedFile{
				Name:        header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Data:        data,
			})
		}
	}

	assistant, err := h.agentService.CreateAgent(r.Context(), core.CreateAgentParams{
		Name:         agentName,
		FirstMessage: firstMessage,
		SystemPrompt: systemPrompt,
		UserID:       userID,
		Files:        files,
	})
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(assistant)
}

// writePipelineError maps provisioning failures onto statuses: client
// input 400, unreadable documents 422, upstream faults 502, and the
// orphaned-assistant case 500 with the remote id so it is not lost.
func (h *APIHandler) writePipelineError(w http.ResponseWriter, err error) {
	var orphaned *core.OrphanedAgentError
	var apiErr *vapi.APIError

	switch {
	case errors.Is(err, core.ErrNoFilesProvided):
		http.Error(w, "You must upload at least one file", http.StatusBadRequest)
	case errors.Is(err, core.ErrNoKnowledgeContent):
		http.Error(w, "All uploaded files were empty", http.StatusBadRequest)
	case errors.Is(err, ocr.ErrEmptyExtraction):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &orphaned):
		log.Printf("Orphaned remote assistant: %v", orphaned)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"error":        "assistant was created but could not be recorded locally",
			"assistant_id": orphaned.AssistantID,
		})
	case errors.As(err, &apiErr):
		log.Printf("Upstream rejection: %v", apiErr)
		http.Error(w, apiErr.Error(), http.StatusBadGateway)
	case errors.Is(err, ocr.ErrExtractionFailed),
		errors.Is(err, vapi.ErrUploadFailed),
		errors.Is(err, vapi.ErrMalformedResponse):
		log.Printf("Pipeline upstream failure: %v", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		log.Printf("Create agent failed: %v", err)
		http.Error(w, "Failed to create agent", http.StatusInternalServerError)
	}
}

func (h *APIHandler) ListAgentsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user_id", http.StatusBadRequest)
		return
	}

	agents, err := h.registry.ListAgents(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing agents for user %d: %v", userID, err)
		http.Error(w, "Failed to list agents", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(agents)
}

func (h *APIHandler) ListPhonesHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user_id", http.StatusBadRequest)
		return
	}

	phones, err := h.registry.ListPhones(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing phones for user %d: %v", userID, err)
		http.Error(w, "Failed to list phones", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(phones)
}

func (h *APIHandler) ListCallsHandler(w http.ResponseWriter, r *http.Request) {
	assistantID := r.URL.Query().Get("assistant_id")
	phoneID := r.URL.Query().Get("phone_id")

	calls, err := h.registry.ListCalls(r.Context(), assistantID, phoneID)
	if err != nil {
		if errors.Is(err, core.ErrMissingFilter) {
			http.Error(w, "You must provide assistant_id or phone_id", http.StatusBadRequest)
			return
		}
		var apiErr *vapi.APIError
		if errors.As(err, &apiErr) {
			http.Error(w, apiErr.Error(), http.StatusBadGateway)
			return
		}
		log.Printf("Error listing calls: %v", err)
		http.Error(w, "Failed to list calls", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(calls)
}

func (h *APIHandler) GetCallHandler(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	call, err := h.registry.GetCall(r.Context(), id)
	if err != nil {
		var apiErr *vapi.APIError
		if errors.As(err, &apiErr) {
			http.Error(w, apiErr.Body, apiErr.StatusCode)
			return
		}
		log.Printf("Error getting call %s: %v", id, err)
		http.Error(w, "Failed to get call", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(call)
}

type DeleteAssistantResponse struct {
	DeletedRows int64 `json:"deleted_rows"`
}

func (h *APIHandler) DeleteAssistantHandler(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	deleted, err := h.registry.DeleteAgent(r.Context(), id)
	if err != nil {
		var apiErr *vapi.APIError
		if errors.As(err, &apiErr) {
			log.Printf("Remote delete of assistant %s failed: %v", id, apiErr)
			http.Error(w, apiErr.Error(), http.StatusBadGateway)
			return
		}
		log.Printf("Error deleting assistant %s: %v", id, err)
		http.Error(w, "Failed to delete assistant", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(DeleteAssistantResponse{DeletedRows: deleted})
}

func (h *APIHandler) TestCallHandler(w http.ResponseWriter, r *http.Request) {
	assistantID := r.URL.Query().Get("assistant_id")
	customerNumber := r.URL.Query().Get("customer_number")
	if assistantID == "" || customerNumber == "" {
		http.Error(w, "assistant_id and customer_number are required", http.StatusBadRequest)
		return
	}

	call, err := h.agentService.TestCall(r.Context(), assistantID, customerNumber, h.defaultPhoneID)
	if err != nil {
		var apiErr *vapi.APIError
		if errors.As(err, &apiErr) {
			http.Error(w, apiErr.Error(), http.StatusBadGateway)
			return
		}
		log.Printf("Error placing test call to %s: %v", customerNumber, err)
		http.Error(w, "Failed to place test call", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(call)
}

func (h *APIHandler) SystemPromptHandler(w http.ResponseWriter, r *http.Request) {
	useCase := r.URL.Query().Get("use_case")
	agentName := r.URL.Query().Get("agent_name")
	if useCase == "" || agentName == "" {
		http.Error(w, "use_case and agent_name are required", http.StatusBadRequest)
		return
	}
	json.NewEncoder(w).Encode(prompts.SystemPrompt(useCase, agentName))
}

func (h *APIHandler) FirstMessageHandler(w http.ResponseWriter, r *http.Request) {
	useCase := r.URL.Query().Get("use_case")
	agentName := r.URL.Query().Get("agent_name")
	if useCase == "" || agentName == "" {
		http.Error(w, "use_case and agent_name are required", http.StatusBadRequest)
		return
	}
	json.NewEncoder(w).Encode(prompts.FirstMessage(useCase, agentName))
}
