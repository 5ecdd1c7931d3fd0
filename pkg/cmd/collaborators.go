package cmd

import (
	"log/slog"

	"github.com/dukex/automaton/pkg/engine"
	"github.com/dukex/automaton/pkg/eventbus"
	"github.com/dukex/automaton/pkg/outbound"
)

// NewCollaborators wires the engine's outbound dependencies. Invoice
// generation is left unconfigured when invoiceServiceURL is empty.
func NewCollaborators(logger *slog.Logger, bus eventbus.EventBus, invoiceServiceURL string) engine.Collaborators {
	collaborators := engine.Collaborators{
		Email:         outbound.NewEmailPublisher(bus),
		Conversations: outbound.NewConversationPublisher(bus),
		SMS:           outbound.NewSMSPublisher(bus),
	}

	if invoiceServiceURL != "" {
		collaborators.Invoices = outbound.NewHTTPInvoiceRenderer(logger, invoiceServiceURL)
	} else {
		logger.Warn("INVOICE_SERVICE_URL not set, GENERATE_INVOICE actions will fail")
	}

	return collaborators
}
