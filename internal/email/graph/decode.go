package graph

import (
	"errors"
	"fmt"
	"strings"

	jsonserialization "github.com/microsoft/kiota-serialization-json-go"
	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/models/odataerrors"

	"github.com/vijay-prabhu/emlsave/internal/email"
)

func decodeMessage(body []byte) (models.Messageable, error) {
	node, err := jsonserialization.NewJsonParseNode(body)
	if err != nil {
		return nil, fmt.Errorf("parsing message JSON: %w", err)
	}

	v, err := node.GetObjectValue(models.CreateMessageFromDiscriminatorValue)
	if err != nil {
		return nil, fmt.Errorf("decoding message: %w", err)
	}
	msg, ok := v.(models.Messageable)
	if !ok || msg == nil {
		return nil, errors.New("response is not a message")
	}
	return msg, nil
}

func decodeMessages(body []byte) ([]models.Messageable, error) {
	node, err := jsonserialization.NewJsonParseNode(body)
	if err != nil {
		return nil, fmt.Errorf("parsing message list JSON: %w", err)
	}

	v, err := node.GetObjectValue(models.CreateMessageCollectionResponseFromDiscriminatorValue)
	if err != nil {
		return nil, fmt.Errorf("decoding message list: %w", err)
	}
	list, ok := v.(models.MessageCollectionResponseable)
	if !ok || list == nil {
		return nil, errors.New("response is not a message list")
	}
	return list.GetValue(), nil
}

// toRecord maps the Graph message fields to the structured record
func toRecord(msg models.Messageable) *email.Record {
	rec := &email.Record{
		ID:      deref(msg.GetId()),
		Subject: deref(msg.GetSubject()),
		To:      addresses(msg.GetToRecipients()),
		Cc:      addresses(msg.GetCcRecipients()),
		Bcc:     addresses(msg.GetBccRecipients()),
	}

	if from := address(msg.GetFrom()); from != nil {
		rec.From = from
	}

	if body := msg.GetBody(); body != nil {
		rec.Body.Content = deref(body.GetContent())
		if ct := body.GetContentType(); ct != nil && *ct == models.HTML_BODYTYPE {
			rec.Body.HTML = true
		}
	}

	if t := msg.GetReceivedDateTime(); t != nil {
		rec.Received = *t
	}

	return rec
}

func address(r models.Recipientable) *email.Address {
	if r == nil || r.GetEmailAddress() == nil {
		return nil
	}
	ea := r.GetEmailAddress()
	a := email.Address{Name: deref(ea.GetName()), Email: deref(ea.GetAddress())}
	if a.Email == "" && a.Name == "" {
		return nil
	}
	// Graph echoes the address as the name when none is set
	if strings.EqualFold(a.Name, a.Email) {
		a.Name = ""
	}
	return &a
}

func addresses(rs []models.Recipientable) []email.Address {
	var out []email.Address
	for _, r := range rs {
		if a := address(r); a != nil {
			out = append(out, *a)
		}
	}
	return out
}

// statusError builds an email.StatusError, using the OData error message when present
func statusError(code int, body []byte) error {
	se := &email.StatusError{Code: code}

	if len(body) == 0 {
		return se
	}
	node, err := jsonserialization.NewJsonParseNode(body)
	if err != nil {
		return se
	}
	v, err := node.GetObjectValue(odataerrors.CreateODataErrorFromDiscriminatorValue)
	if err != nil {
		return se
	}
	if oDataError, ok := v.(*odataerrors.ODataError); ok && oDataError.GetErrorEscaped() != nil {
		main := oDataError.GetErrorEscaped()
		se.Message = strings.TrimSpace(deref(main.GetCode()) + " " + deref(main.GetMessage()))
	}
	return se
}
