// Command seed generates randomized settlement and payment traffic
// against a running server, then reports the resulting trust scores.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Default configuration constants.
const (
	defaultSellers     = 10
	defaultBuyers      = 20
	defaultSettlements = 200
	defaultPayments    = 100
	defaultWorkers     = 8
	defaultTimeout     = 10 * time.Second
	defaultRunTimeout  = 5 * time.Minute
)

type settlementRequest struct {
	EventID   string `json:"event_id"`
	SellerID  string `json:"seller_id"`
	Amount    string `json:"amount"`
	Succeeded bool   `json:"succeeded"`
}

type paymentRequest struct {
	EventID  string `json:"event_id"`
	BuyerID  string `json:"buyer_id"`
	OnTime   bool   `json:"on_time"`
	SellerID string `json:"seller_id,omitempty"`
}

type scoreRequest struct {
	SellerID string `json:"seller_id"`
	BuyerID  string `json:"buyer_id,omitempty"`
	Amount   string `json:"amount"`
}

type scoreResponse struct {
	Score int `json:"score"`
}

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:8080", "Base URL of the service")
		sellers     = flag.Int("sellers", defaultSellers, "Number of distinct sellers")
		buyers      = flag.Int("buyers", defaultBuyers, "Number of distinct buyers")
		settlements = flag.Int("settlements", defaultSettlements, "Number of settlements to record")
		payments    = flag.Int("payments", defaultPayments, "Number of buyer payments to record")
		workers     = flag.Int("workers", defaultWorkers, "Number of concurrent workers")
		successRate = flag.Float64("success-rate", 0.85, "Fraction of settlements that succeed")
		lateRate    = flag.Float64("late-rate", 0.2, "Fraction of payments that arrive late")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	client := &http.Client{Timeout: *timeout}

	jobs := make(chan func() error)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures int

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if err := job(); err != nil {
					mu.Lock()
					failures++
					mu.Unlock()
					os.Stderr.WriteString("request failed: " + err.Error() + "\n")
				}
			}
		}()
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sellerID := func() string { return fmt.Sprintf("seller-%03d", rng.Intn(*sellers)) }
	buyerID := func() string { return fmt.Sprintf("buyer-%03d", rng.Intn(*buyers)) }

	for i := 0; i < *settlements; i++ {
		req := settlementRequest{
			EventID:   uuid.NewString(),
			SellerID:  sellerID(),
			Amount:    fmt.Sprintf("%d", 500+rng.Intn(9500)),
			Succeeded: rng.Float64() < *successRate,
		}
		jobs <- func() error { return post(ctx, client, *baseURL+"/v1/settlements", req, nil) }
	}

	for i := 0; i < *payments; i++ {
		req := paymentRequest{
			EventID:  uuid.NewString(),
			BuyerID:  buyerID(),
			OnTime:   rng.Float64() >= *lateRate,
			SellerID: sellerID(),
		}
		jobs <- func() error { return post(ctx, client, *baseURL+"/v1/payments", req, nil) }
	}

	close(jobs)
	wg.Wait()

	// Sample a few scores to show the effect of the generated traffic.
	for i := 0; i < *sellers; i++ {
		req := scoreRequest{
			SellerID: fmt.Sprintf("seller-%03d", i),
			BuyerID:  buyerID(),
			Amount:   fmt.Sprintf("%d", 500+rng.Intn(9500)),
		}
		var resp scoreResponse
		if err := post(ctx, client, *baseURL+"/v1/scores", req, &resp); err != nil {
			os.Stderr.WriteString("score request failed: " + err.Error() + "\n")
			continue
		}
		fmt.Printf("%s trust score: %d\n", req.SellerID, resp.Score)
	}

	fmt.Printf("done: %d settlements, %d payments, %d failures\n", *settlements, *payments, failures)
}

func post(ctx context.Context, client *http.Client, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s: unexpected status %d", url, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
