package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kolawole99/henry-capstone/models"
	"github.com/Kolawole99/henry-capstone/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeStore is an in-memory storage.Store.
type fakeStore struct {
	agents   map[string]*models.Agent
	files    map[string]*models.File
	sessions map[string]bool
	messages []*models.ChatMessage
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		agents:   make(map[string]*models.Agent),
		files:    make(map[string]*models.File),
		sessions: make(map[string]bool),
	}
}

func (f *fakeStore) CreateAgent(ctx context.Context, agent *models.Agent) error {
	f.agents[agent.ID] = agent
	return nil
}

func (f *fakeStore) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	return f.agents[id], nil
}

func (f *fakeStore) ListAgents(ctx context.Context) ([]*models.Agent, error) {
	var agents []*models.Agent
	for _, agent := range f.agents {
		agents = append(agents, agent)
	}
	return agents, nil
}

func (f *fakeStore) DeleteAgent(ctx context.Context, id string) error {
	if _, ok := f.agents[id]; !ok {
		return fmt.Errorf("agent not found: %s", id)
	}
	delete(f.agents, id)
	return nil
}

func (f *fakeStore) CreateFile(ctx context.Context, file *models.File) error {
	f.files[file.ID] = file
	return nil
}

func (f *fakeStore) GetFile(ctx context.Context, id string) (*models.File, error) {
	return f.files[id], nil
}

func (f *fakeStore) ListFiles(ctx context.Context) ([]*models.File, error) {
	var files []*models.File
	for _, file := range f.files {
		files = append(files, file)
	}
	return files, nil
}

func (f *fakeStore) ListFilesByAgent(ctx context.Context, agentID string) ([]*models.File, error) {
	var files []*models.File
	for _, file := range f.files {
		if file.AgentID == agentID {
			files = append(files, file)
		}
	}
	return files, nil
}

func (f *fakeStore) DeleteFile(ctx context.Context, id string) error {
	delete(f.files, id)
	return nil
}

func (f *fakeStore) EnsureSession(ctx context.Context, id string) error {
	f.sessions[id] = true
	return nil
}

func (f *fakeStore) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	msg.ID = int64(len(f.messages) + 1)
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeStore) ListMessages(ctx context.Context, sessionID string) ([]*models.ChatMessage, error) {
	var messages []*models.ChatMessage
	for _, msg := range f.messages {
		if msg.SessionID == sessionID {
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

func (f *fakeStore) Close() error { return nil }

// fakePipeline returns a canned pipeline result.
type fakePipeline struct {
	result *models.QueryResult
	err    error
	calls  int
}

func (f *fakePipeline) ProcessQuery(ctx context.Context, text, role, agentID string) (*models.QueryResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeGenerator returns a canned agent directive.
type fakeGenerator struct {
	generated services.GeneratedAgentPrompt
	err       error
}

func (f *fakeGenerator) Generate(ctx context.Context, agentName, userDescription string) (services.GeneratedAgentPrompt, error) {
	if f.err != nil {
		return services.GeneratedAgentPrompt{}, f.err
	}
	return f.generated, nil
}

// fakeIndex implements services.Ingestor.
type fakeIndex struct {
	deleted []string
}

func (f *fakeIndex) IngestFile(ctx context.Context, path, fileID string) (int, error) {
	return 3, nil
}

func (f *fakeIndex) DeleteFile(ctx context.Context, fileID string) (int, error) {
	f.deleted = append(f.deleted, fileID)
	return 3, nil
}

// fakeIndexes implements ChunkIndexes over a single fakeIndex.
type fakeIndexes struct {
	index *fakeIndex
	err   error
}

func (f *fakeIndexes) IndexFor(ctx context.Context, agentID string) (services.Ingestor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.index, nil
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestChatEndpointPersistsConversation(t *testing.T) {
	store := newFakeStore()
	pipeline := &fakePipeline{result: &models.QueryResult{
		FinalAnswer: "Twenty days.",
		AgentLabel:  "HR",
		Sources:     []string{"handbook.pdf"},
	}}
	chat := NewChatController(pipeline, store, nil)

	router := gin.New()
	router.POST("/chat", chat.Chat)

	rec := postJSON(t, router, "/chat", models.ChatRequest{Message: "What is the vacation policy?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Twenty days.", resp.Response)
	assert.Equal(t, "HR", resp.Agent)
	assert.Equal(t, []string{"handbook.pdf"}, resp.Sources)
	assert.NotEmpty(t, resp.SessionID)

	require.Len(t, store.messages, 2)
	assert.Equal(t, "user", store.messages[0].Role)
	assert.Equal(t, "assistant", store.messages[1].Role)
	assert.Equal(t, "Twenty days.", store.messages[1].Content)
}

func TestChatEndpointRejectsEmptyBody(t *testing.T) {
	chat := NewChatController(&fakePipeline{}, newFakeStore(), nil)
	router := gin.New()
	router.POST("/chat", chat.Chat)

	rec := postJSON(t, router, "/chat", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatEndpointPipelineFailure(t *testing.T) {
	pipeline := &fakePipeline{err: errors.New("audit failure: malformed verdict")}
	chat := NewChatController(pipeline, newFakeStore(), nil)
	router := gin.New()
	router.POST("/chat", chat.Chat)

	rec := postJSON(t, router, "/chat", models.ChatRequest{Message: "q"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "audit failure")
}

func TestCreateAgentUsesGeneratedDirective(t *testing.T) {
	store := newFakeStore()
	generator := &fakeGenerator{generated: services.GeneratedAgentPrompt{
		SystemPrompt:       "You are the Finance specialist.",
		RefinedDescription: "Handles budgeting questions.",
	}}
	agents := NewAgentController(store, generator, &fakeIndexes{index: &fakeIndex{}}, nil)

	router := gin.New()
	router.POST("/agents", agents.Create)

	rec := postJSON(t, router, "/agents", models.CreateAgentRequest{Name: "Finance", Description: "money stuff"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Agent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Finance", created.Name)
	assert.Equal(t, "Handles budgeting questions.", created.Description)

	stored := store.agents[created.ID]
	require.NotNil(t, stored)
	assert.Equal(t, "You are the Finance specialist.", stored.SystemPrompt)
}

func TestCreateAgentProvisioningFailure(t *testing.T) {
	agents := NewAgentController(newFakeStore(), &fakeGenerator{err: errors.New("model down")}, &fakeIndexes{index: &fakeIndex{}}, nil)
	router := gin.New()
	router.POST("/agents", agents.Create)

	rec := postJSON(t, router, "/agents", models.CreateAgentRequest{Name: "Finance", Description: "money"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestDeleteAgentRemovesFileChunks(t *testing.T) {
	store := newFakeStore()
	store.agents["h1"] = &models.Agent{ID: "h1", Name: "HR"}
	store.files["f1"] = &models.File{ID: "f1", Name: "a.txt", AgentID: "h1"}
	store.files["f2"] = &models.File{ID: "f2", Name: "b.txt", AgentID: "other"}

	index := &fakeIndex{}
	agents := NewAgentController(store, &fakeGenerator{}, &fakeIndexes{index: index}, nil)
	router := gin.New()
	router.DELETE("/agents/:id", agents.Delete)

	req := httptest.NewRequest(http.MethodDelete, "/agents/h1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"f1"}, index.deleted)
	assert.NotContains(t, store.agents, "h1")
}

func TestDeleteAgentNotFound(t *testing.T) {
	agents := NewAgentController(newFakeStore(), &fakeGenerator{}, &fakeIndexes{index: &fakeIndex{}}, nil)
	router := gin.New()
	router.DELETE("/agents/:id", agents.Delete)

	req := httptest.NewRequest(http.MethodDelete, "/agents/ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteFileChecksRecordFirst(t *testing.T) {
	store := newFakeStore()
	index := &fakeIndex{}
	files, err := NewFileController(store, &fakeIndexes{index: index}, t.TempDir(), nil)
	require.NoError(t, err)

	router := gin.New()
	router.DELETE("/files/:id", files.Delete)

	req := httptest.NewRequest(http.MethodDelete, "/files/ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, index.deleted)
}

func TestDeleteFileRemovesChunksAndRecord(t *testing.T) {
	store := newFakeStore()
	store.files["f1"] = &models.File{ID: "f1", Name: "a.txt", Filepath: "/nonexistent/a.txt", AgentID: "h1"}
	index := &fakeIndex{}
	files, err := NewFileController(store, &fakeIndexes{index: index}, t.TempDir(), nil)
	require.NoError(t, err)

	router := gin.New()
	router.DELETE("/files/:id", files.Delete)

	req := httptest.NewRequest(http.MethodDelete, "/files/f1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"f1"}, index.deleted)
	assert.NotContains(t, store.files, "f1")
}
