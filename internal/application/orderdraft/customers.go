package orderdraft

import (
	"github.com/erp/orderdesk/internal/domain/partner"
	"github.com/erp/orderdesk/internal/domain/shared"
)

// Customer returns the selected customer
func (d *Draft) Customer() *partner.Customer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.customer
}

// SelectCustomer selects c. A nil customer clears the selection.
func (d *Draft) SelectCustomer(c *partner.Customer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.customer = c
}

// UseGuest selects a new guest customer
func (d *Draft) UseGuest() *partner.Customer {
	guest := partner.NewGuestCustomer(d.cfg.OrgID)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.customer = guest
	return guest
}

// CreateCustomer registers a customer in this session and selects it
func (d *Draft) CreateCustomer(details partner.Details) (*partner.Customer, error) {
	c, err := partner.NewCustomer(d.cfg.OrgID, details)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.localCustomers = append(d.localCustomers, c)
	d.customer = c
	return c, nil
}

// ConvertGuest turns the selected guest into a customer and selects it
func (d *Draft) ConvertGuest(details partner.Details) (*partner.Customer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.customer == nil {
		return nil, shared.ErrNoCustomer
	}
	c, err := partner.ConvertGuest(d.customer, details)
	if err != nil {
		return nil, err
	}
	d.localCustomers = append(d.localCustomers, c)
	d.customer = c
	return c, nil
}

// LocalCustomers returns the customers created in this session
func (d *Draft) LocalCustomers() []*partner.Customer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*partner.Customer(nil), d.localCustomers...)
}
