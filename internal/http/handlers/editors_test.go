package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/flarehq/flarepp/internal/domain/user"
	"github.com/flarehq/flarepp/internal/domain/video"
	"github.com/flarehq/flarepp/internal/http/handlers"
	"github.com/flarehq/flarepp/internal/repo/postgres"
)

type fakeAssignedStore struct {
	getFn       func(ctx context.Context, id string) (video.Video, error)
	listFn      func(ctx context.Context, editorID string) ([]video.Video, error)
	setStatusFn func(ctx context.Context, videoID string, from, to video.Status) error
}

func (f *fakeAssignedStore) GetByID(ctx context.Context, id string) (video.Video, error) {
	return f.getFn(ctx, id)
}

func (f *fakeAssignedStore) ListByEditor(ctx context.Context, editorID string) ([]video.Video, error) {
	return f.listFn(ctx, editorID)
}

func (f *fakeAssignedStore) SetStatus(ctx context.Context, videoID string, from, to video.Status) error {
	return f.setStatusFn(ctx, videoID, from, to)
}

type fakeProfileStore struct {
	updateFn func(ctx context.Context, id string, params postgres.UpdateProfileParams) (user.User, error)
}

func (f *fakeProfileStore) UpdateProfile(ctx context.Context, id string, params postgres.UpdateProfileParams) (user.User, error) {
	return f.updateFn(ctx, id, params)
}

func editorTestRouter(videos *fakeAssignedStore, profiles *fakeProfileStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := handlers.NewEditorsHandler(videos, profiles)

	r := gin.New()
	r.GET("/videos", asUser("editor-1"), h.ListAssigned)
	r.PUT("/videos/:id/status", asUser("editor-1"), h.MarkEdited)
	r.PUT("/profile", asUser("editor-1"), h.UpdateProfile)

	return r
}

func assignedTo(editorID string) video.Video {
	return video.Video{
		ID:       "vid-1",
		EditorID: &editorID,
		Status:   video.StatusAssigned,
	}
}

func TestMarkEdited_HappyPath(t *testing.T) {
	var gotFrom, gotTo video.Status

	videos := &fakeAssignedStore{
		getFn: func(_ context.Context, id string) (video.Video, error) {
			return assignedTo("editor-1"), nil
		},
		setStatusFn: func(_ context.Context, _ string, from, to video.Status) error {
			gotFrom, gotTo = from, to
			return nil
		},
	}

	r := editorTestRouter(videos, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodPut, "/videos/vid-1/status", `{"status":"edited"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if gotFrom != video.StatusAssigned || gotTo != video.StatusEdited {
		t.Fatalf("transition %s -> %s, want assigned -> edited", gotFrom, gotTo)
	}

	body := decodeBody(t, w)
	v, _ := body["video"].(map[string]any)

	if v["status"] != "edited" {
		t.Fatalf("response video status %v, want edited", v["status"])
	}
}

func TestMarkEdited_OtherEditorsVideoIsHidden(t *testing.T) {
	videos := &fakeAssignedStore{
		getFn: func(_ context.Context, id string) (video.Video, error) {
			return assignedTo("someone-else"), nil
		},
	}

	r := editorTestRouter(videos, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodPut, "/videos/vid-1/status", `{"status":"edited"}`))

	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404, body=%s", w.Code, w.Body.String())
	}
}

func TestMarkEdited_RejectsOtherStatusValues(t *testing.T) {
	r := editorTestRouter(&fakeAssignedStore{}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodPut, "/videos/vid-1/status", `{"status":"published"}`))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
	}
}

func TestMarkEdited_WrongStateConflicts(t *testing.T) {
	videos := &fakeAssignedStore{
		getFn: func(_ context.Context, id string) (video.Video, error) {
			v := assignedTo("editor-1")
			v.Status = video.StatusUploaded
			return v, nil
		},
		setStatusFn: func(context.Context, string, video.Status, video.Status) error {
			return video.ErrInvalidTransition
		},
	}

	r := editorTestRouter(videos, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodPut, "/videos/vid-1/status", `{"status":"edited"}`))

	if w.Code != http.StatusConflict {
		t.Fatalf("got status %d, want 409, body=%s", w.Code, w.Body.String())
	}
}

func TestUpdateProfile_RequiresSomeField(t *testing.T) {
	r := editorTestRouter(nil, &fakeProfileStore{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodPut, "/profile", `{}`))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
	}
}

func TestUpdateProfile_PassesFieldsThrough(t *testing.T) {
	var got postgres.UpdateProfileParams

	profiles := &fakeProfileStore{
		updateFn: func(_ context.Context, id string, params postgres.UpdateProfileParams) (user.User, error) {
			got = params
			return user.User{ID: id, Name: *params.Name, Role: user.RoleEditor}, nil
		},
	}

	r := editorTestRouter(nil, profiles)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodPut, "/profile",
		`{"name":"New Name","speciality":"color grading"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if got.Name == nil || *got.Name != "New Name" {
		t.Fatalf("name not passed through: %+v", got)
	}

	if got.Speciality == nil || *got.Speciality != "color grading" {
		t.Fatalf("speciality not passed through: %+v", got)
	}

	if got.AvatarURL != nil {
		t.Fatalf("avatar should stay nil when omitted")
	}
}
