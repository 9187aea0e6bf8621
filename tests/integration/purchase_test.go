package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"tiketi/internal/models"
)

// TestAPI_HealthCheck tests the API health endpoint
func TestAPI_HealthCheck(t *testing.T) {
	requireServer(t)
	client := newBuyerClient()

	LogTestStep(t, "Testing API health check")
	client.HealthCheck(t)
	LogTestResult(t, "API is healthy and responding")
}

// TestPurchase_FullFlow creates an event, buys tickets and verifies both
// history views and the availability counters.
func TestPurchase_FullFlow(t *testing.T) {
	requireServer(t)
	creator := newCreatorClient()
	buyer := newBuyerClient()

	LogTestStep(t, "Creating event")
	event := creator.CreateEvent(t, models.CreateEventRequest{
		Title:        fmt.Sprintf("Integration Gig %d", time.Now().UnixNano()),
		Description:  "Created by the integration suite",
		Price:        5000,
		Currency:     "NGN",
		TotalTickets: 10,
	})
	LogTestResult(t, "Created event %d", event.ID)

	events := buyer.ListEvents(t)
	AssertEventExists(t, events, event.ID)

	LogTestStep(t, "Purchasing 2 tickets")
	purchase := buyer.MustPurchase(t, models.PurchaseRequest{
		EventID:  event.ID,
		Quantity: 2,
	}, "")

	if purchase.Status != models.StatusSuccess {
		t.Fatalf("Expected SUCCESS purchase, got %s", purchase.Status)
	}
	if purchase.Amount != 10000 {
		t.Fatalf("Expected amount 10000, got %d", purchase.Amount)
	}
	if purchase.GatewayReference == nil || *purchase.GatewayReference == "" {
		t.Fatal("Expected a gateway reference on a successful purchase")
	}
	LogTestResult(t, "Purchase %s completed with reference %s", purchase.OrderID, *purchase.GatewayReference)

	LogTestStep(t, "Verifying availability")
	availability := buyer.GetEvent(t, event.ID)
	if availability.TicketsSold != 2 {
		t.Fatalf("Expected 2 tickets sold, got %d", availability.TicketsSold)
	}
	if availability.TicketsLeft != 8 {
		t.Fatalf("Expected 8 tickets left, got %d", availability.TicketsLeft)
	}

	LogTestStep(t, "Verifying transaction histories")
	consumerItems := buyer.ConsumerTransactions(t)
	if FindTransaction(consumerItems, purchase.OrderID) == nil {
		t.Fatalf("Purchase %s missing from consumer history", purchase.OrderID)
	}

	creatorItems := creator.CreatorTransactions(t)
	if FindTransaction(creatorItems, purchase.OrderID) == nil {
		t.Fatalf("Purchase %s missing from creator history", purchase.OrderID)
	}
	LogTestResult(t, "Purchase visible in both histories")
}

// TestPurchase_CapacityExceeded verifies oversell protection on a small event
func TestPurchase_CapacityExceeded(t *testing.T) {
	requireServer(t)
	creator := newCreatorClient()
	buyer := newBuyerClient()

	event := creator.CreateEvent(t, models.CreateEventRequest{
		Title:        fmt.Sprintf("Tiny Venue %d", time.Now().UnixNano()),
		Price:        1000,
		TotalTickets: 2,
	})

	buyer.MustPurchase(t, models.PurchaseRequest{EventID: event.ID, Quantity: 2}, "")

	LogTestStep(t, "Attempting to purchase beyond capacity")
	resp := buyer.CreatePurchase(t, models.PurchaseRequest{EventID: event.ID, Quantity: 1}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 409, got %d. Body: %s", resp.StatusCode, string(body))
	}
	LogTestResult(t, "Oversell attempt rejected with 409")

	availability := buyer.GetEvent(t, event.ID)
	if availability.TicketsLeft != 0 {
		t.Fatalf("Expected 0 tickets left, got %d", availability.TicketsLeft)
	}
}

// TestPurchase_ConcurrentLastTicket races two buyers for a single remaining
// ticket; exactly one purchase may complete.
func TestPurchase_ConcurrentLastTicket(t *testing.T) {
	requireServer(t)
	creator := newCreatorClient()
	buyer := newBuyerClient()

	event := creator.CreateEvent(t, models.CreateEventRequest{
		Title:        fmt.Sprintf("Last Ticket %d", time.Now().UnixNano()),
		Price:        1000,
		TotalTickets: 1,
	})

	LogTestStep(t, "Racing two purchases for the last ticket")
	codes := make([]int, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := buyer.CreatePurchase(t, models.PurchaseRequest{EventID: event.ID, Quantity: 1}, "")
			defer resp.Body.Close()
			codes[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	var created, conflict int
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflict++
		default:
			t.Fatalf("Unexpected status code %d", code)
		}
	}
	if created != 1 || conflict != 1 {
		t.Fatalf("Expected exactly one success and one conflict, got codes %v", codes)
	}
	LogTestResult(t, "Exactly one buyer got the last ticket")
}

// TestPurchase_IdempotencyKey verifies a retried request with the same key
// returns the original transaction instead of charging twice.
func TestPurchase_IdempotencyKey(t *testing.T) {
	requireServer(t)
	creator := newCreatorClient()
	buyer := newBuyerClient()

	event := creator.CreateEvent(t, models.CreateEventRequest{
		Title:        fmt.Sprintf("Retry Safe %d", time.Now().UnixNano()),
		Price:        1000,
		TotalTickets: 10,
	})

	key := fmt.Sprintf("it-%d", time.Now().UnixNano())
	first := buyer.MustPurchase(t, models.PurchaseRequest{EventID: event.ID, Quantity: 1}, key)
	second := buyer.MustPurchase(t, models.PurchaseRequest{EventID: event.ID, Quantity: 1}, key)

	if first.OrderID != second.OrderID {
		t.Fatalf("Expected the same order on replay, got %s and %s", first.OrderID, second.OrderID)
	}

	availability := buyer.GetEvent(t, event.ID)
	if availability.TicketsSold != 1 {
		t.Fatalf("Expected 1 ticket sold after replay, got %d", availability.TicketsSold)
	}
	LogTestResult(t, "Replay returned order %s without a second charge", first.OrderID)
}

// TestPurchase_Validation covers the request-shape rejections
func TestPurchase_Validation(t *testing.T) {
	requireServer(t)
	buyer := newBuyerClient()

	cases := []struct {
		name string
		body models.PurchaseRequest
	}{
		{"missing event", models.PurchaseRequest{Quantity: 1}},
		{"zero quantity", models.PurchaseRequest{EventID: 1}},
		{"negative quantity", models.PurchaseRequest{EventID: 1, Quantity: -1}},
	}

	for _, tc := range cases {
		resp := buyer.CreatePurchase(t, tc.body, "")
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d. Body: %s", tc.name, resp.StatusCode, string(body))
		}

		var errResp map[string]interface{}
		if err := json.Unmarshal(body, &errResp); err != nil {
			t.Fatalf("%s: error response is not JSON: %s", tc.name, string(body))
		}
	}
}

// TestPurchase_Unauthenticated verifies the purchase endpoint is closed to
// anonymous callers.
func TestPurchase_Unauthenticated(t *testing.T) {
	requireServer(t)
	anonymous := NewTestClient(apiBaseURL(), "", "")

	resp := anonymous.CreatePurchase(t, models.PurchaseRequest{EventID: 1, Quantity: 1}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", resp.StatusCode)
	}
}
