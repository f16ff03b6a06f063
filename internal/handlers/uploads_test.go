package handlers_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"clinicdesk-server/internal/models"
)

// tiny but valid-enough payload; handlers check the declared MIME type only.
var pngBytes = []byte("\x89PNG\r\n\x1a\nfakeimagedata")

func uploadImage(t *testing.T, router *gin.Engine, token, filename, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/profile-image", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestUploadProfileImage(t *testing.T) {
	router, db := setupServer(t)
	token, userID := registerUser(t, router, "patient")

	rr := uploadImage(t, router, token, "avatar.png", "image/png", pngBytes)
	if rr.Code != http.StatusCreated {
		t.Fatalf("upload: got %d, body %s", rr.Code, rr.Body.String())
	}

	// The user row now points at the serving path.
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if !strings.HasPrefix(user.ProfileImage, "/api/v1/uploads/profile-image/") {
		t.Fatalf("profileImage = %q", user.ProfileImage)
	}

	// The stored image comes back with its MIME type.
	getRR := doRequest(t, router, http.MethodGet, user.ProfileImage, token, nil)
	if getRR.Code != http.StatusOK {
		t.Fatalf("fetch image: got %d", getRR.Code)
	}
	if ct := getRR.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %s", ct)
	}
	if !bytes.Equal(getRR.Body.Bytes(), pngBytes) {
		t.Error("image bytes do not round-trip")
	}
}

func TestUploadReplacesPreviousImage(t *testing.T) {
	router, db := setupServer(t)
	token, userID := registerUser(t, router, "patient")

	uploadImage(t, router, token, "old.png", "image/png", pngBytes)
	rr := uploadImage(t, router, token, "new.jpg", "image/jpeg", []byte("jpegdata"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("second upload: got %d", rr.Code)
	}

	var count int64
	db.Model(&models.ProfileImage{}).Where("user_id = ?", userID).Count(&count)
	if count != 1 {
		t.Errorf("stored images = %d, want 1", count)
	}
}

func TestUploadRejections(t *testing.T) {
	router, _ := setupServer(t)
	token, _ := registerUser(t, router, "patient")

	t.Run("non-image type", func(t *testing.T) {
		rr := uploadImage(t, router, token, "notes.txt", "text/plain", []byte("hello"))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("got %d, want 400", rr.Code)
		}
	})

	t.Run("oversized file", func(t *testing.T) {
		big := bytes.Repeat([]byte("a"), 2<<20+1)
		rr := uploadImage(t, router, token, "huge.png", "image/png", big)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("got %d, want 400", rr.Code)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rr := uploadImage(t, router, "", "avatar.png", "image/png", pngBytes)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("got %d, want 401", rr.Code)
		}
	})
}

func TestDeleteProfileImage(t *testing.T) {
	router, db := setupServer(t)
	token, userID := registerUser(t, router, "patient")

	uploadImage(t, router, token, "avatar.png", "image/png", pngBytes)

	rr := doRequest(t, router, http.MethodDelete, "/api/v1/uploads/profile-image", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: got %d, body %s", rr.Code, rr.Body.String())
	}

	var count int64
	db.Model(&models.ProfileImage{}).Where("user_id = ?", userID).Count(&count)
	if count != 0 {
		t.Error("image row still present")
	}
	var user models.User
	db.First(&user, "id = ?", userID)
	if user.ProfileImage != "" {
		t.Errorf("profileImage = %q, want empty", user.ProfileImage)
	}

	// Nothing left to delete.
	rr = doRequest(t, router, http.MethodDelete, "/api/v1/uploads/profile-image", token, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete: got %d, want 404", rr.Code)
	}
}
