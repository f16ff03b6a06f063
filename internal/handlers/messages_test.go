package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"clinicdesk-server/internal/models"
)

func sendMessage(t *testing.T, router *gin.Engine, token, recipientID, subject string) models.Message {
	t.Helper()
	rr := doRequest(t, router, http.MethodPost, "/api/v1/messages", token, gin.H{
		"recipientId": recipientID,
		"subject":     subject,
		"content":     "please see the attached results",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("send message: got %d, body %s", rr.Code, rr.Body.String())
	}
	var message models.Message
	decodeData(t, rr, &message)
	return message
}

func TestSendMessage(t *testing.T) {
	router, _ := setupServer(t)
	patientToken, _ := registerUser(t, router, "patient")
	doctorToken, doctorUserID := registerUser(t, router, "doctor")

	sendMessage(t, router, patientToken, doctorUserID, "Question about dosage")

	// Inbox and unread count reflect the delivery.
	rr := doRequest(t, router, http.MethodGet, "/api/v1/messages", doctorToken, nil)
	var inbox []models.Message
	decodeData(t, rr, &inbox)
	if len(inbox) != 1 || inbox[0].Subject != "Question about dosage" {
		t.Fatalf("inbox = %+v", inbox)
	}

	rr = doRequest(t, router, http.MethodGet, "/api/v1/messages/unread-count", doctorToken, nil)
	var count struct {
		Count int64 `json:"count"`
	}
	decodeData(t, rr, &count)
	if count.Count != 1 {
		t.Errorf("unread = %d, want 1", count.Count)
	}

	// The sender's inbox stays empty; the sent box has it.
	rr = doRequest(t, router, http.MethodGet, "/api/v1/messages", patientToken, nil)
	var senderInbox []models.Message
	decodeData(t, rr, &senderInbox)
	if len(senderInbox) != 0 {
		t.Errorf("sender inbox = %d, want 0", len(senderInbox))
	}
	rr = doRequest(t, router, http.MethodGet, "/api/v1/messages?box=sent", patientToken, nil)
	var sent []models.Message
	decodeData(t, rr, &sent)
	if len(sent) != 1 {
		t.Errorf("sent box = %d, want 1", len(sent))
	}
}

func TestSendMessageRejections(t *testing.T) {
	router, _ := setupServer(t)
	patientToken, patientUserID := registerUser(t, router, "patient")

	t.Run("self send", func(t *testing.T) {
		rr := doRequest(t, router, http.MethodPost, "/api/v1/messages", patientToken, gin.H{
			"recipientId": patientUserID,
			"subject":     "note to self",
			"content":     "x",
		})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("got %d, want 400", rr.Code)
		}
	})

	t.Run("unknown recipient", func(t *testing.T) {
		rr := doRequest(t, router, http.MethodPost, "/api/v1/messages", patientToken, gin.H{
			"recipientId": "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
			"subject":     "hello",
			"content":     "x",
		})
		if rr.Code != http.StatusNotFound {
			t.Errorf("got %d, want 404", rr.Code)
		}
	})

	t.Run("unknown reply target", func(t *testing.T) {
		_, doctorUserID := registerUser(t, router, "doctor")
		rr := doRequest(t, router, http.MethodPost, "/api/v1/messages", patientToken, gin.H{
			"recipientId": doctorUserID,
			"subject":     "re: nothing",
			"content":     "x",
			"replyToId":   "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
		})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("got %d, want 400", rr.Code)
		}
	})
}

func TestMarkMessageAsReadRecipientOnly(t *testing.T) {
	router, _ := setupServer(t)
	patientToken, _ := registerUser(t, router, "patient")
	doctorToken, doctorUserID := registerUser(t, router, "doctor")

	message := sendMessage(t, router, patientToken, doctorUserID, "Lab results")
	path := "/api/v1/messages/" + message.ID + "/read"

	// The sender cannot mark it read.
	if rr := doRequest(t, router, http.MethodPatch, path, patientToken, nil); rr.Code != http.StatusForbidden {
		t.Fatalf("sender mark read: got %d, want 403", rr.Code)
	}

	if rr := doRequest(t, router, http.MethodPatch, path, doctorToken, nil); rr.Code != http.StatusOK {
		t.Fatalf("recipient mark read: got %d", rr.Code)
	}

	rr := doRequest(t, router, http.MethodGet, "/api/v1/messages/unread-count", doctorToken, nil)
	var count struct {
		Count int64 `json:"count"`
	}
	decodeData(t, rr, &count)
	if count.Count != 0 {
		t.Errorf("unread after read = %d, want 0", count.Count)
	}
}

func TestDeleteMessageSoft(t *testing.T) {
	router, db := setupServer(t)
	patientToken, _ := registerUser(t, router, "patient")
	doctorToken, doctorUserID := registerUser(t, router, "doctor")

	message := sendMessage(t, router, patientToken, doctorUserID, "Old thread")

	rr := doRequest(t, router, http.MethodDelete, "/api/v1/messages/"+message.ID, doctorToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: got %d, body %s", rr.Code, rr.Body.String())
	}

	// Gone from the inbox, still in the table.
	rr = doRequest(t, router, http.MethodGet, "/api/v1/messages", doctorToken, nil)
	var inbox []models.Message
	decodeData(t, rr, &inbox)
	if len(inbox) != 0 {
		t.Errorf("inbox after delete = %d, want 0", len(inbox))
	}

	var stored models.Message
	if err := db.First(&stored, "id = ?", message.ID).Error; err != nil {
		t.Fatalf("message hard-deleted: %v", err)
	}
	if !stored.IsDeleted {
		t.Error("isDeleted not set")
	}

	// An outsider may not delete someone else's message.
	other := sendMessage(t, router, patientToken, doctorUserID, "Another")
	strangerToken, _ := registerUser(t, router, "patient")
	rr = doRequest(t, router, http.MethodDelete, "/api/v1/messages/"+other.ID, strangerToken, nil)
	if rr.Code != http.StatusForbidden {
		t.Errorf("stranger delete: got %d, want 403", rr.Code)
	}
}

func TestMessageSendCreatesNotification(t *testing.T) {
	router, _ := setupServer(t)
	patientToken, _ := registerUser(t, router, "patient")
	doctorToken, doctorUserID := registerUser(t, router, "doctor")

	sendMessage(t, router, patientToken, doctorUserID, "Follow up")

	rr := doRequest(t, router, http.MethodGet, "/api/v1/notifications?unread=true", doctorToken, nil)
	var notifications []models.Notification
	decodeData(t, rr, &notifications)
	if len(notifications) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifications))
	}
	if notifications[0].Type != models.NotificationMessage {
		t.Errorf("type = %s, want message", notifications[0].Type)
	}
}
