// Package backendstub is an in-memory implementation of the customer REST
// backend for tests. It serves the same routes and status codes as the real
// service and can be told to fail individual requests.
package backendstub

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/CSCI-GA-2820-SP23-003/customers/internal/domain/customer"
)

// Recorded is one request received by the stub.
type Recorded struct {
	Method    string
	Path      string
	RawQuery  string
	Body      string
	RequestID string
}

type fault struct {
	method  string
	path    string
	status  int
	message string
}

// Server is the in-memory backend.
type Server struct {
	mu             sync.Mutex
	customers      map[int64]customer.Customer
	nextCustomerID int64
	nextAddressID  int64
	faults         []fault
	requests       []Recorded

	engine *gin.Engine
}

// New creates an empty backend.
func New() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		customers:      make(map[int64]customer.Customer),
		nextCustomerID: 1,
		nextAddressID:  1,
		engine:         gin.New(),
	}
	s.engine.Use(s.record, s.inject)
	s.routes()
	return s
}

// Start serves the backend on a loopback listener until the returned
// server is closed.
func Start() (*Server, *httptest.Server) {
	s := New()
	return s, httptest.NewServer(s.Handler())
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	r := s.engine
	r.POST("/customers", s.createCustomer)
	r.GET("/customers", s.listCustomers)
	r.GET("/customers/:id", s.getCustomer)
	r.PUT("/customers/:id", s.updateCustomer)
	r.DELETE("/customers/:id", s.deleteCustomer)
	r.PUT("/customers/:id/activate", s.setActive(true))
	r.PUT("/customers/:id/deactivate", s.setActive(false))
	r.PUT("/customers/:id/addresses/:address_id", s.updateAddress)
	r.DELETE("/customers/:id/addresses/:address_id", s.deleteAddress)
}

// Seed stores c with fresh ids and returns the stored copy.
func (s *Server) Seed(c customer.Customer) customer.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(c)
}

// Customer returns the stored customer with id.
func (s *Server) Customer(id int64) (customer.Customer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	return clone(c), ok
}

// Len returns the number of stored customers.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.customers)
}

// Fail makes the next request matching method and path answer with status.
// path is matched exactly against the request path. An empty message sends
// an empty body.
func (s *Server) Fail(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, fault{method: method, path: path, status: status, message: message})
}

// Requests returns every request received so far.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recorded(nil), s.requests...)
}

// Reset forgets recorded requests and pending faults.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
	s.faults = nil
}

func (s *Server) record(c *gin.Context) {
	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}

	s.mu.Lock()
	s.requests = append(s.requests, Recorded{
		Method:    c.Request.Method,
		Path:      c.Request.URL.Path,
		RawQuery:  c.Request.URL.RawQuery,
		Body:      string(body),
		RequestID: c.GetHeader("X-Request-ID"),
	})
	s.mu.Unlock()

	c.Next()
}

func (s *Server) inject(c *gin.Context) {
	s.mu.Lock()
	var hit *fault
	for i, f := range s.faults {
		if f.method == c.Request.Method && f.path == c.Request.URL.Path {
			hit = &f
			s.faults = append(s.faults[:i], s.faults[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if hit == nil {
		c.Next()
		return
	}
	if hit.message == "" {
		c.AbortWithStatus(hit.status)
		return
	}
	abortWithMessage(c, hit.status, hit.message)
}

// customerRequest is the body of POST and PUT /customers.
type customerRequest struct {
	FirstName string           `json:"first_name" binding:"required"`
	LastName  string           `json:"last_name" binding:"required"`
	Email     string           `json:"email" binding:"required"`
	Password  string           `json:"password" binding:"required"`
	Active    bool             `json:"active"`
	Addresses []addressRequest `json:"addresses" binding:"dive"`
}

// addressRequest is the body of PUT /customers/:id/addresses/:address_id
// and an element of customerRequest.Addresses.
type addressRequest struct {
	Street  string `json:"street" binding:"required"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state" binding:"required"`
	Country string `json:"country" binding:"required"`
	PinCode string `json:"pin_code" binding:"required"`
}

func (a addressRequest) toAddress() customer.Address {
	return customer.Address{
		Street:  a.Street,
		City:    a.City,
		State:   a.State,
		Country: a.Country,
		PinCode: a.PinCode,
	}
}

func (s *Server) createCustomer(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, "Invalid Customer: "+err.Error())
		return
	}

	in := customer.Customer{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Active:    req.Active,
	}
	for _, a := range req.Addresses {
		in.Addresses = append(in.Addresses, a.toAddress())
	}

	s.mu.Lock()
	stored := s.insert(in)
	s.mu.Unlock()

	c.Header("Location", fmt.Sprintf("/customers/%d", stored.ID))
	c.JSON(http.StatusCreated, stored)
}

func (s *Server) listCustomers(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.customers))
	for id := range s.customers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	query := c.Request.URL.Query()
	out := make([]customer.Customer, 0, len(ids))
	for _, id := range ids {
		cust := s.customers[id]
		if matches(cust, query) {
			out = append(out, clone(cust))
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getCustomer(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cust, found := s.customers[id]
	if !found {
		notFound(c, id)
		return
	}
	c.JSON(http.StatusOK, clone(cust))
}

func (s *Server) updateCustomer(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, "Invalid Customer: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cust, found := s.customers[id]
	if !found {
		notFound(c, id)
		return
	}
	cust.FirstName = req.FirstName
	cust.LastName = req.LastName
	cust.Email = req.Email
	cust.Password = req.Password
	cust.Active = req.Active
	s.customers[id] = cust

	c.JSON(http.StatusOK, clone(cust))
}

func (s *Server) deleteCustomer(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.customers, id)
	s.mu.Unlock()

	c.Status(http.StatusNoContent)
}

func (s *Server) setActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := customerID(c)
		if !ok {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()

		cust, found := s.customers[id]
		if !found {
			notFound(c, id)
			return
		}
		cust.Active = active
		s.customers[id] = cust
		c.JSON(http.StatusOK, clone(cust))
	}
}

func (s *Server) updateAddress(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	addressID, err := strconv.ParseInt(c.Param("address_id"), 10, 64)
	if err != nil {
		abortWithMessage(c, http.StatusNotFound, "Address id must be numeric")
		return
	}
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, "Invalid Address: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cust, found := s.customers[id]
	if !found {
		notFound(c, id)
		return
	}
	for i, a := range cust.Addresses {
		if a.AddressID != addressID {
			continue
		}
		updated := req.toAddress()
		updated.AddressID = a.AddressID
		updated.CustomerID = id
		cust.Addresses[i] = updated
		s.customers[id] = cust
		c.JSON(http.StatusOK, updated)
		return
	}
	abortWithMessage(c, http.StatusNotFound,
		fmt.Sprintf("Address with id '%d' was not found for customer '%d'.", addressID, id))
}

func (s *Server) deleteAddress(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	addressID, err := strconv.ParseInt(c.Param("address_id"), 10, 64)
	if err != nil {
		abortWithMessage(c, http.StatusNotFound, "Address id must be numeric")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cust, found := s.customers[id]; found {
		kept := cust.Addresses[:0]
		for _, a := range cust.Addresses {
			if a.AddressID != addressID {
				kept = append(kept, a)
			}
		}
		cust.Addresses = kept
		s.customers[id] = cust
	}
	c.Status(http.StatusNoContent)
}

// insert assigns ids and stores c. Callers hold s.mu.
func (s *Server) insert(c customer.Customer) customer.Customer {
	c = clone(c)
	c.ID = s.nextCustomerID
	s.nextCustomerID++
	for i := range c.Addresses {
		c.Addresses[i].AddressID = s.nextAddressID
		c.Addresses[i].CustomerID = c.ID
		s.nextAddressID++
	}
	s.customers[c.ID] = c
	return clone(c)
}

// matches applies the single-key filters the backend supports. Address
// filters match when any address of the customer matches.
func matches(c customer.Customer, query map[string][]string) bool {
	for key, values := range query {
		if len(values) == 0 {
			continue
		}
		want := values[0]
		switch customer.Field(key) {
		case customer.FieldFirstName:
			if c.FirstName != want {
				return false
			}
		case customer.FieldLastName:
			if c.LastName != want {
				return false
			}
		case customer.FieldEmail:
			if c.Email != want {
				return false
			}
		case customer.FieldActive:
			if customer.FormatActive(c.Active) != strings.ToLower(want) {
				return false
			}
		case customer.FieldAddressID, customer.FieldStreet, customer.FieldCity,
			customer.FieldState, customer.FieldCountry, customer.FieldPinCode:
			if !anyAddress(c, customer.Field(key), want) {
				return false
			}
		}
	}
	return true
}

func anyAddress(c customer.Customer, f customer.Field, want string) bool {
	for _, a := range c.Addresses {
		if customer.AddressSection(a).Get(f) == want {
			return true
		}
	}
	return false
}

func customerID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortWithMessage(c, http.StatusNotFound, "Customer id must be numeric")
		return 0, false
	}
	return id, true
}

func notFound(c *gin.Context, id int64) {
	abortWithMessage(c, http.StatusNotFound, fmt.Sprintf("Customer with id '%d' was not found.", id))
}

func abortWithMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"status":  status,
		"error":   http.StatusText(status),
		"message": message,
	})
}

func clone(c customer.Customer) customer.Customer {
	if c.Addresses != nil {
		c.Addresses = append([]customer.Address(nil), c.Addresses...)
	}
	return c
}
