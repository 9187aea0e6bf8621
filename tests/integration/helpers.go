package integration

import (
	"fmt"
	"net/http"
	"os"
	"testing"

	"tiketi/internal/models"
)

// Integration tests run against a live API with a seeded user. Configure via
// environment, defaults match docker-compose.
func apiBaseURL() string {
	if url := os.Getenv("TIKETI_API_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func buyerCredentials() (string, string) {
	email := os.Getenv("TIKETI_BUYER_EMAIL")
	if email == "" {
		email = "buyer@example.com"
	}
	password := os.Getenv("TIKETI_BUYER_PASSWORD")
	if password == "" {
		password = "password"
	}
	return email, password
}

func creatorCredentials() (string, string) {
	email := os.Getenv("TIKETI_CREATOR_EMAIL")
	if email == "" {
		email = "owner@example.com"
	}
	password := os.Getenv("TIKETI_CREATOR_PASSWORD")
	if password == "" {
		password = "password"
	}
	return email, password
}

// requireServer skips the test when no API is reachable, so the suite can
// run in environments without the full stack.
func requireServer(t *testing.T) {
	resp, err := http.Get(apiBaseURL() + "/health")
	if err != nil {
		t.Skipf("API not reachable at %s: %v", apiBaseURL(), err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Skipf("API at %s unhealthy: %d", apiBaseURL(), resp.StatusCode)
	}
}

func newBuyerClient() *TestClient {
	email, password := buyerCredentials()
	return NewTestClient(apiBaseURL(), email, password)
}

func newCreatorClient() *TestClient {
	email, password := creatorCredentials()
	return NewTestClient(apiBaseURL(), email, password)
}

// LogTestStep logs a test step
func LogTestStep(t *testing.T, format string, args ...interface{}) {
	t.Logf("STEP: %s", fmt.Sprintf(format, args...))
}

// LogTestResult logs a test result
func LogTestResult(t *testing.T, format string, args ...interface{}) {
	t.Logf("RESULT: %s", fmt.Sprintf(format, args...))
}

// AssertEventExists checks if an event exists in the list
func AssertEventExists(t *testing.T, events models.ListEventsResponse, eventID int64) {
	for _, event := range events {
		if event.ID == eventID {
			return
		}
	}
	t.Fatalf("Event with ID %d not found in events list, %+v", eventID, events)
}

// FindTransaction locates a transaction by order id
func FindTransaction(items []models.TransactionListItem, orderID string) *models.TransactionListItem {
	for i := range items {
		if items[i].OrderID == orderID {
			return &items[i]
		}
	}
	return nil
}
