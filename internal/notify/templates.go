package notify

import (
	"bytes"
	"fmt"
	"marketplace/internal/domain"
	"text/template"
)

// Template names, also used as metric labels
const (
	TemplateOperator = "operator"
	TemplateCustomer = "customer"
)

const operatorText = `A new order has been placed.

Order:    #{{.ID}}
Customer: {{.Username}}
Product:  {{.ProductName}}
Quantity: {{.Quantity}}
Mobile:   {{.Mobile}}
Address:  {{.Address}}
Email:    {{.Email}}
Placed:   {{.CreatedAt.Format "2006-01-02 15:04 MST"}}
`

const customerText = `Hello {{.Username}},

Thank you for your order #{{.ID}}: {{.Quantity}} x {{.ProductName}}.

We will deliver to:
{{.Address}}

and call you on {{.Mobile}} if anything changes.
`

var templates = template.Must(
	template.Must(template.New(TemplateOperator).Parse(operatorText)).New(TemplateCustomer).Parse(customerText),
)

// OperatorMessage renders the order copy sent to the marketplace operator
func OperatorMessage(operator string, order *domain.Order) (Message, error) {
	body, err := render(TemplateOperator, order)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      operator,
		Subject: fmt.Sprintf("New order #%d: %d x %s", order.ID, order.Quantity, order.ProductName),
		Body:    body,
	}, nil
}

// CustomerMessage renders the confirmation sent to the buyer
func CustomerMessage(order *domain.Order) (Message, error) {
	body, err := render(TemplateCustomer, order)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      order.Email,
		Subject: fmt.Sprintf("Your order #%d is confirmed", order.ID),
		Body:    body,
	}, nil
}

func render(name string, order *domain.Order) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, order); err != nil {
		return "", fmt.Errorf("%w: render %s: %w", domain.ErrNotification, name, err)
	}
	return buf.String(), nil
}
