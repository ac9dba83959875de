package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/r3labs/sse/v2"
	"gopkg.in/cenkalti/backoff.v1"
	"solbol.backend/internal/domain/entities"
	"solbol.backend/pkg/livelist"
)

// apiSource loads orders over the REST API and follows the realtime stream.
type apiSource struct {
	baseURL string
	token   string
	admin   bool
	limit   int
	client  *http.Client
}

func (s *apiSource) ordersURL() string {
	path := "/api/orders"
	if s.admin {
		path = "/api/admin/orders"
	}
	return fmt.Sprintf("%s%s?page=1&limit=%d", s.baseURL, path, s.limit)
}

func (s *apiSource) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	return req, nil
}

func (s *apiSource) Load(ctx context.Context) ([]*entities.Order, error) {
	req, err := s.newRequest(ctx, s.ordersURL())
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var page struct {
		Items []*entities.Order `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return page.Items, nil
}

func (s *apiSource) Subscribe(ctx context.Context) (<-chan livelist.Change[*entities.Order], error) {
	client := sse.NewClient(s.baseURL+"/api/realtime/stream?tables="+entities.TableOrders, sse.ClientMaxBufferSize(1<<20))
	client.Connection = s.client
	client.Headers["Authorization"] = "Bearer " + s.token
	client.ReconnectStrategy = &backoff.StopBackOff{}

	opened := make(chan error, 1)
	var once sync.Once
	report := func(err error) { once.Do(func() { opened <- err }) }
	client.ResponseValidator = func(_ *sse.Client, resp *http.Response) error {
		if resp.StatusCode != http.StatusOK {
			defer resp.Body.Close()
			err := apiError(resp)
			report(err)
			return err
		}
		report(nil)
		return nil
	}

	streamCtx, cancel := context.WithCancel(ctx)
	out := make(chan livelist.Change[*entities.Order], 16)
	go func() {
		defer close(out)
		defer cancel()
		err := client.SubscribeWithContext(streamCtx, "", func(msg *sse.Event) {
			if streamCtx.Err() != nil {
				return
			}
			switch string(msg.Event) {
			case "resync":
				cancel()
			case "change":
				change, ok := decodeChange(string(msg.Data))
				if !ok {
					return
				}
				select {
				case out <- change:
				case <-streamCtx.Done():
				}
			}
		})
		if err != nil {
			report(fmt.Errorf("open stream: %w", err))
		}
	}()

	select {
	case err := <-opened:
		if err != nil {
			cancel()
			return nil, err
		}
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	}
	return out, nil
}

func decodeChange(data string) (livelist.Change[*entities.Order], bool) {
	var ev entities.ChangeEvent
	if err := json.Unmarshal([]byte(data), &ev); err != nil || ev.Table != entities.TableOrders {
		return livelist.Change[*entities.Order]{}, false
	}
	row := ev.New
	if ev.Type == entities.ChangeDelete {
		row = ev.Old
	}
	var order entities.Order
	if len(row) == 0 || json.Unmarshal(row, &order) != nil {
		return livelist.Change[*entities.Order]{}, false
	}
	return livelist.Change[*entities.Order]{Op: livelist.Op(ev.Type), Item: &order}, true
}

func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return fmt.Errorf("api returned %s", resp.Status)
	}
	return fmt.Errorf("api returned %s: %s (%s)", resp.Status, body.Error, body.Code)
}
