package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Behyna/wa-inbox/pkg/httpclient"
)

const defaultBaseURL = "https://graph.facebook.com/v22.0"

type Provider interface {
	Send(ctx context.Context, creds Credentials, request SendRequest) (Response, error)
}

type client struct {
	cfg    Config
	client httpclient.HTTPClient
}

func NewProvider(cfg Config, httpClient httpclient.HTTPClient) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &client{cfg: cfg, client: httpClient}
}

func (c *client) Send(ctx context.Context, creds Credentials, request SendRequest) (Response, error) {
	body, err := buildMessageRequest(request)
	if err != nil {
		return Response{}, err
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return Response{}, fmt.Errorf("encoding error: %w", err)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + creds.AccessToken,
		"Content-Type":  "application/json",
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + creds.PhoneNumberID + "/messages"

	resp, err := c.client.Post(ctx, url, &buf, headers)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Response{}, ErrTimeout
		}

		return Response{}, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := MapStatusToError(resp.StatusCode)

		var apiErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return Response{}, fmt.Errorf("%w: %s (code %d)", statusErr, apiErr.Error.Message, apiErr.Error.Code)
		}

		return Response{}, statusErr
	}

	var res messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Response{}, fmt.Errorf("%w: decoding error: %v", ErrServerError, err)
	}

	if len(res.Messages) == 0 || res.Messages[0].ID == "" {
		return Response{}, fmt.Errorf("%w: response carries no message id", ErrServerError)
	}

	response := Response{MessageID: res.Messages[0].ID}
	if len(res.Contacts) > 0 {
		response.WaID = res.Contacts[0].WaID
	}

	return response, nil
}

func buildMessageRequest(request SendRequest) (messageRequest, error) {
	body := messageRequest{
		MessagingProduct: MessagingProduct,
		RecipientType:    "individual",
		To:               strings.TrimPrefix(request.To, "+"),
		Type:             request.Type,
	}

	switch request.Type {
	case "text", "":
		if request.Text == "" {
			return messageRequest{}, fmt.Errorf("%w: text body is empty", ErrInvalidRequest)
		}
		body.Type = "text"
		body.Text = &textBody{Body: request.Text}

	case "template":
		if request.TemplateName == "" {
			return messageRequest{}, fmt.Errorf("%w: template name is empty", ErrInvalidRequest)
		}
		language := request.TemplateLanguage
		if language == "" {
			language = "en_US"
		}
		body.Template = &templateRequest{Name: request.TemplateName, Language: templateLanguage{Code: language}}

	default:
		return messageRequest{}, fmt.Errorf("%w: unsupported message type %q", ErrInvalidRequest, request.Type)
	}

	return body, nil
}
