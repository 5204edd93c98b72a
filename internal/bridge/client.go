// Package bridge is the transport to the external decision service. Mode
// queries are synchronous with a bounded timeout; arrival reports are
// fire-and-forget. The simulation must never crash because the service is
// slow, down, or answering garbage, so every failure path here degrades to a
// sentinel value instead of an error.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"
)

// #region client-struct

// DefaultTimeout bounds the blocking mode query. One stuck call must not
// stall the simulation step indefinitely.
const DefaultTimeout = 5 * time.Second

// Client talks to the decision service. A single underlying http.Client is
// reused across all agents and calls.
type Client struct {
	http        *http.Client
	decisionURL string
	arrivalURL  string
	inflight    sync.WaitGroup
}

// #endregion client-struct

// #region constructor

// NewClient builds a client for the service at host:port.
func NewClient(host string, port int) *Client {
	base := fmt.Sprintf("http://%s:%d", host, port)
	return &Client{
		http:        &http.Client{Timeout: DefaultTimeout},
		decisionURL: base + "/ModeChoice",
		arrivalURL:  base + "/Arrival",
	}
}

// NewClientWithHTTP injects a custom http.Client and base URL. Used by tests
// against httptest servers.
func NewClientWithHTTP(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		http:        httpClient,
		decisionURL: baseURL + "/ModeChoice",
		arrivalURL:  baseURL + "/Arrival",
	}
}

// Close waits for in-flight arrival reports to finish. Reports racing process
// shutdown may still be lost; that is tolerated.
func (c *Client) Close() {
	c.inflight.Wait()
}

// #endregion constructor

// #region request-mode

// modeResponse is the /ModeChoice response body.
type modeResponse struct {
	ModeChoice string `json:"mode_choice"`
}

// RequestMode posts the observation and blocks for the chosen mode. It never
// returns an error: transport failures yield the transport sentinel, non-2xx
// statuses and unusable bodies yield the parse sentinel.
func (c *Client) RequestMode(ctx context.Context, obs Observation) Decision {
	body, err := json.Marshal(obs)
	if err != nil {
		log.Printf("[BRIDGE] marshal observation for %s: %v", obs.AgentID, err)
		return degraded(FallbackTransport)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.decisionURL, bytes.NewReader(body))
	if err != nil {
		log.Printf("[BRIDGE] build mode request for %s: %v", obs.AgentID, err)
		return degraded(FallbackTransport)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("[BRIDGE] mode request for %s failed: %v", obs.AgentID, err)
		return degraded(FallbackTransport)
	}
	defer resp.Body.Close()

	return extractMode(resp)
}

// extractMode pulls mode_choice out of the response, degrading to the parse
// sentinel when the status or body is unusable.
func extractMode(resp *http.Response) Decision {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[BRIDGE] read mode response: %v", err)
		return degraded(FallbackParse)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[BRIDGE] mode request status %d", resp.StatusCode)
		return degraded(FallbackParse)
	}
	var parsed modeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		log.Printf("[BRIDGE] parse mode response: %v", err)
		return degraded(FallbackParse)
	}
	if parsed.ModeChoice == "" {
		log.Printf("[BRIDGE] mode response missing mode_choice")
		return degraded(FallbackParse)
	}
	return decided(parsed.ModeChoice)
}

// #endregion request-mode

// #region report-arrival

// ReportArrival posts the reward payload without blocking the caller beyond
// request construction. The response is only consulted for a warning log;
// the report is never retried.
func (c *Client) ReportArrival(report ArrivalReport) {
	body, err := json.Marshal(report)
	if err != nil {
		log.Printf("[BRIDGE] marshal arrival for %s: %v", report.AgentID, err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, c.arrivalURL, bytes.NewReader(body))
	if err != nil {
		log.Printf("[BRIDGE] build arrival request for %s: %v", report.AgentID, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		resp, err := c.http.Do(req)
		if err != nil {
			log.Printf("[BRIDGE] arrival report for %s failed: %v", report.AgentID, err)
			return
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			log.Printf("[BRIDGE] arrival report for %s: status %d", report.AgentID, resp.StatusCode)
		}
	}()
}

// #endregion report-arrival
