package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dukex/automaton/pkg/flow"
	"github.com/dukex/automaton/pkg/models"
	"github.com/dukex/automaton/pkg/protocol"
)

// Context key written by SEND_EMAIL with the dispatcher message id.
const ContextKeyLastMessageID = "lastMessageId"

var (
	errNoEmailDispatcher  = errors.New("no email dispatcher configured")
	errNoInvoiceRenderer  = errors.New("no invoice renderer configured")
	errNoConversations    = errors.New("no conversation store configured")
	errNoSMSSender        = errors.New("no sms sender configured")
	errMissingOrderID     = errors.New("enrollment context has no order id")
	errMissingPhoneNumber = errors.New("no phone number in node data or context")
)

type actionRun struct {
	automation *models.Automation
	enrollment *models.Enrollment
	node       *models.FlowNode
	data       map[string]any
	logger     *slog.Logger
}

func (r *actionRun) accountID() string {
	return r.enrollment.AccountID
}

func (r *actionRun) render(key string) string {
	return flow.RenderTemplate(stringValue(r.data, key), r.enrollment.ContextData.Map())
}

type actionHandler func(ctx context.Context, run *actionRun) error

func (x *Executor) sendEmail(ctx context.Context, run *actionRun) error {
	if x.collaborators.Email == nil {
		return errNoEmailDispatcher
	}

	bodyKey := "body"
	if stringValue(run.data, bodyKey) == "" {
		bodyKey = "html"
	}

	message := protocol.EmailMessage{
		AccountID:      run.accountID(),
		EmailAccountID: stringValue(run.data, "emailAccountId"),
		To:             run.enrollment.Email,
		Subject:        run.render("subject"),
		HTML:           run.render(bodyKey),
		Attachments:    run.enrollment.ContextData.Attachments,
	}

	messageID, err := x.collaborators.Email.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	run.enrollment.ContextData.Set(ContextKeyLastMessageID, messageID)

	return x.saveContext(ctx, run.enrollment)
}

func (x *Executor) generateInvoice(ctx context.Context, run *actionRun) error {
	if x.collaborators.Invoices == nil {
		return errNoInvoiceRenderer
	}

	orderID := run.enrollment.ContextData.OrderID
	if orderID == "" {
		return errMissingOrderID
	}

	url, err := x.collaborators.Invoices.Generate(ctx, run.accountID(), orderID, stringValue(run.data, "templateId"))
	if err != nil {
		return fmt.Errorf("failed to generate invoice: %w", err)
	}

	run.enrollment.ContextData.AddAttachment(models.Attachment{
		Filename: fmt.Sprintf("invoice-%s.pdf", orderID),
		URL:      url,
	})

	return x.saveContext(ctx, run.enrollment)
}

// conversation resolves the store and conversation id shared by inbox actions.
// ok is false when the enrollment has no conversation; the action is then skipped.
func (x *Executor) conversation(ctx context.Context, run *actionRun) (protocol.ConversationStore, string, bool, error) {
	if x.collaborators.Conversations == nil {
		return nil, "", false, errNoConversations
	}

	conversationID := run.enrollment.ContextData.ConversationID
	if conversationID == "" {
		run.logger.WarnContext(ctx, "Skipping conversation action: no conversation id in context")

		return nil, "", false, nil
	}

	return x.collaborators.Conversations, conversationID, true, nil
}

func (x *Executor) assignConversation(ctx context.Context, run *actionRun) error {
	store, conversationID, ok, err := x.conversation(ctx, run)
	if !ok {
		return err
	}

	return store.Assign(ctx, run.accountID(), conversationID, stringValue(run.data, "userId"))
}

func (x *Executor) addTag(ctx context.Context, run *actionRun) error {
	store, conversationID, ok, err := x.conversation(ctx, run)
	if !ok {
		return err
	}

	return store.AddTag(ctx, run.accountID(), conversationID, stringValue(run.data, "tag"))
}

func (x *Executor) closeConversation(ctx context.Context, run *actionRun) error {
	store, conversationID, ok, err := x.conversation(ctx, run)
	if !ok {
		return err
	}

	return store.Close(ctx, run.accountID(), conversationID)
}

func (x *Executor) addNote(ctx context.Context, run *actionRun) error {
	store, conversationID, ok, err := x.conversation(ctx, run)
	if !ok {
		return err
	}

	return store.AddNote(ctx, run.accountID(), conversationID, run.render("content"))
}

func (x *Executor) sendCannedResponse(ctx context.Context, run *actionRun) error {
	store, conversationID, ok, err := x.conversation(ctx, run)
	if !ok {
		return err
	}

	return store.SendCannedResponse(ctx, run.accountID(), conversationID, stringValue(run.data, "cannedResponseId"))
}

func (x *Executor) sendSMS(ctx context.Context, run *actionRun) error {
	if x.collaborators.SMS == nil {
		return errNoSMSSender
	}

	to := run.render("to")
	if to == "" {
		to = contextPhone(run.enrollment.ContextData.Map())
	}

	if to == "" {
		return errMissingPhoneNumber
	}

	_, err := x.collaborators.SMS.Send(ctx, run.accountID(), to, run.render("message"))
	if err != nil {
		return fmt.Errorf("failed to send sms: %w", err)
	}

	return nil
}

func contextPhone(values map[string]any) string {
	if phone := stringValue(values, "phone"); phone != "" {
		return phone
	}

	billing, _ := values["billing"].(map[string]any)

	return stringValue(billing, "phone")
}

// stringValue reads data[key] as a string; numbers are formatted without exponent.
func stringValue(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}
