package service

import (
	"context"
	"fmt"
	"marketplace/internal/domain"
	"marketplace/internal/metrics"
	"marketplace/internal/notify"
	"marketplace/internal/store"
	"time"

	"github.com/sirupsen/logrus"
)

// PlaceOrderInput is the checkout form of a buyer
type PlaceOrderInput struct {
	Username    string `validate:"required"`
	ProductName string `validate:"required"`
	Quantity    int    `validate:"min=1"`
	Mobile      string `validate:"required,max=32"`
	Address     string `validate:"required,max=255"`
	Email       string `validate:"required,email,max=255"`
}

// Confirmation is returned to the buyer after checkout. Warnings lists
// notifications that could not be delivered; the order stands regardless.
type Confirmation struct {
	Order    *domain.Order `json:"order"`
	Message  string        `json:"message"`
	Warnings []string      `json:"warnings,omitempty"`
}

// Orders records orders and notifies the operator and the buyer
type Orders struct {
	store         store.Store
	notifier      notify.Notifier
	operatorEmail string
}

// NewOrders returns an order service. Each notification is bounded by timeout.
func NewOrders(s store.Store, n notify.Notifier, operatorEmail string, timeout time.Duration) *Orders {
	return &Orders{
		store:         s,
		notifier:      notify.WithTimeout(n, timeout),
		operatorEmail: operatorEmail,
	}
}

// PlaceOrder records the order as pending and then sends both notifications.
// Notification failures are logged and reported as warnings, never as errors.
func (o *Orders) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Confirmation, error) {
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	order := &domain.Order{
		Username:    in.Username,
		ProductName: in.ProductName,
		Quantity:    in.Quantity,
		Mobile:      in.Mobile,
		Address:     in.Address,
		Email:       in.Email,
		Status:      domain.OrderStatusPending,
	}
	if err := o.store.InsertOrder(ctx, order); err != nil {
		return nil, err
	}
	metrics.RecordOrderPlaced()
	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"username": order.Username,
		"product":  order.ProductName,
		"quantity": order.Quantity,
	}).Info("Order placed")

	conf := &Confirmation{
		Order:   order,
		Message: fmt.Sprintf("You have ordered %d of %s.", order.Quantity, order.ProductName),
	}

	// The order is committed; a client that went away must not cancel the mails
	notifyCtx := context.WithoutCancel(ctx)
	operatorMsg, opErr := notify.OperatorMessage(o.operatorEmail, order)
	customerMsg, custErr := notify.CustomerMessage(order)
	o.deliver(notifyCtx, conf, notify.TemplateOperator, operatorMsg, opErr)
	o.deliver(notifyCtx, conf, notify.TemplateCustomer, customerMsg, custErr)
	return conf, nil
}

func (o *Orders) deliver(ctx context.Context, conf *Confirmation, template string, msg notify.Message, renderErr error) {
	err := renderErr
	if err == nil {
		err = o.notifier.Send(ctx, msg)
	}
	metrics.RecordNotification(template, err)
	if err == nil {
		return
	}
	logrus.WithFields(logrus.Fields{
		"order_id": conf.Order.ID,
		"template": template,
		"to":       msg.To,
		"error":    err.Error(),
	}).Warn("Notification failed")
	conf.Warnings = append(conf.Warnings, fmt.Sprintf("%s notification to %s failed: %v", template, msg.To, err))
}

// ListOrders returns every order, oldest first
func (o *Orders) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return o.store.ListOrders(ctx)
}

// ListOrdersPage returns the given 1-based page of orders and the total count
func (o *Orders) ListOrdersPage(ctx context.Context, page, pageSize int) ([]domain.Order, int64, error) {
	if page < 1 || pageSize < 1 {
		return nil, 0, invalid("page and page size must be positive")
	}
	return o.store.ListOrdersPage(ctx, (page-1)*pageSize, pageSize)
}

// ListOrdersForUser returns the orders of one buyer, oldest first
func (o *Orders) ListOrdersForUser(ctx context.Context, username string) ([]domain.Order, error) {
	return o.store.ListOrdersByUser(ctx, username)
}

// UpdateStatus moves an order along its lifecycle
func (o *Orders) UpdateStatus(ctx context.Context, id uint, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, invalid("unknown order status %q", status)
	}
	current, err := o.store.FindOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransition(status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, status)
	}
	updated, err := o.store.UpdateOrderStatus(ctx, id, current.Status, status)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"order_id": id,
		"from":     current.Status,
		"to":       status,
	}).Info("Order status changed")
	return updated, nil
}
