package scrapindex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"
)

// Client fetches market scrap rates from an XML price feed. The feed
// publishes one rate per material, in currency per kilogram.
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new scrap-index client
func NewClient(url string, log *logrus.Logger) *Client {
	return &Client{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// sendRequest fetches the raw XML feed
func (c *Client) sendRequest(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	c.log.Debugf("Scrap index XML response: %s", string(body))

	return body, nil
}

// parseXMLResponse extracts the rate for the given material
func (c *Client) parseXMLResponse(rawBody []byte, material string) (float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return 0, fmt.Errorf("failed to parse XML: %v", err)
	}

	materials := doc.FindElements("//rates/material")
	if len(materials) == 0 {
		return 0, fmt.Errorf("no rate data found in XML")
	}

	for _, el := range materials {
		if el.SelectAttrValue("name", "") != material {
			continue
		}
		rateElement := el.FindElement("./rate")
		if rateElement == nil {
			return 0, fmt.Errorf("rate element not found for material %s", material)
		}
		var rate float64
		if _, err := fmt.Sscanf(rateElement.Text(), "%f", &rate); err != nil {
			return 0, fmt.Errorf("failed to parse rate: %v", err)
		}
		return rate, nil
	}

	return 0, fmt.Errorf("material %s not listed in feed", material)
}

// RatePerKg retrieves the current market rate for a material.
func (c *Client) RatePerKg(ctx context.Context, material string) (float64, error) {
	body, err := c.sendRequest(ctx)
	if err != nil {
		return 0, err
	}

	rate, err := c.parseXMLResponse(body, material)
	if err != nil {
		return 0, err
	}

	c.log.Infof("Scrap index rate for %s: %.2f per kg", material, rate)
	return rate, nil
}
