// Package records holds accounts, departments, employees and requests and
// enforces the integrity rules between them.
package records

import (
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/staffdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/staffdesk/pkg/errors"
	"github.com/google/uuid"
)

// Store is the in-process record store. Every method is safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	accounts    *table[Account]
	departments *table[Department]
	employees   *table[Employee]
	requests    *table[Request]

	newID func() string
	now   func() time.Time
}

type Option func(*Store)

// WithIDGenerator overrides the identifier source used on insert.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithClock overrides the clock used to date new requests.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) {
		if fn != nil {
			s.now = fn
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		accounts:    newTable(func(a Account) string { return a.ID }, identity[Account]),
		departments: newTable(func(d Department) string { return d.ID }, identity[Department]),
		employees:   newTable(func(e Employee) string { return e.ID }, identity[Employee]),
		requests:    newTable(func(r Request) string { return r.ID }, cloneRequest),
		newID:       uuid.NewString,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the store clock in UTC.
func (s *Store) Now() time.Time {
	return s.now().UTC()
}

func notFound(entity string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
}

// ---- accounts ----

func (s *Store) ListAccounts() []Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts.list()
}

func (s *Store) FindAccountByID(id string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.accounts.find(id); ok {
		return a, nil
	}
	return Account{}, notFound("account")
}

func (s *Store) FindAccounts(pred func(Account) bool) []Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts.filter(pred)
}

// FindAccountByEmail looks an account up by normalized email.
func (s *Store) FindAccountByEmail(email string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.accountByEmailLocked(NormalizeEmail(email)); ok {
		return a, nil
	}
	return Account{}, notFound("account")
}

func (s *Store) accountByEmailLocked(email string) (Account, bool) {
	if email == "" {
		return Account{}, false
	}
	matches := s.accounts.filter(func(a Account) bool { return a.Email == email })
	if len(matches) == 0 {
		return Account{}, false
	}
	return matches[0], true
}

func (s *Store) emailTakenLocked(email, exceptID string) bool {
	return s.accounts.exists(func(a Account) bool { return a.Email == email && a.ID != exceptID })
}

// InsertAccount stores a new account under a fresh id. The email is
// normalized and must not collide with another account.
func (s *Store) InsertAccount(a Account) (Account, error) {
	a.Email = NormalizeEmail(a.Email)
	if a.Email == "" {
		return Account{}, pkgerrors.New(pkgerrors.CodeValidation, "Email is required")
	}
	if !a.Role.IsValid() {
		return Account{}, pkgerrors.New(pkgerrors.CodeValidation, "Role must be Admin or User")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTakenLocked(a.Email, "") {
		return Account{}, pkgerrors.New(pkgerrors.CodeDuplicateKey, "Email already exists")
	}
	a.ID = s.newID()
	s.accounts.insert(a)
	return a, nil
}

// UpdateAccount applies patch to the account. The id never changes.
func (s *Store) UpdateAccount(id string, patch AccountPatch) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.accounts.index(id)
	if i < 0 {
		return Account{}, notFound("account")
	}
	a := s.accounts.rows[i]

	if patch.Email != nil {
		email := NormalizeEmail(*patch.Email)
		if email == "" {
			return Account{}, pkgerrors.New(pkgerrors.CodeValidation, "Email is required")
		}
		if s.emailTakenLocked(email, id) {
			return Account{}, pkgerrors.New(pkgerrors.CodeDuplicateKey, "Email already exists")
		}
		a.Email = email
	}
	if patch.Role != nil {
		if !patch.Role.IsValid() {
			return Account{}, pkgerrors.New(pkgerrors.CodeValidation, "Role must be Admin or User")
		}
		a.Role = *patch.Role
	}
	if patch.FirstName != nil {
		a.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		a.LastName = *patch.LastName
	}
	if patch.Password != nil {
		a.Password = *patch.Password
	}
	if patch.Verified != nil {
		a.Verified = *patch.Verified
	}

	s.accounts.replace(i, a)
	return a, nil
}

// RemoveAccount deletes the account and every employee linked to its email.
// Removing activeID is refused before anything changes. It returns the
// number of employees removed with the account.
func (s *Store) RemoveAccount(id, activeID string) (int, error) {
	if id != "" && id == activeID {
		return 0, pkgerrors.New(pkgerrors.CodeSelfDeletion, "Cannot delete your own account")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.accounts.index(id)
	if i < 0 {
		return 0, notFound("account")
	}
	email := s.accounts.rows[i].Email
	cascaded := s.employees.removeWhere(func(e Employee) bool { return e.UserEmail == email })
	s.accounts.removeAt(i)
	return cascaded, nil
}

// ---- departments ----

func (s *Store) ListDepartments() []Department {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.departments.list()
}

func (s *Store) FindDepartmentByID(id string) (Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.departments.find(id); ok {
		return d, nil
	}
	return Department{}, notFound("department")
}

func (s *Store) FindDepartments(pred func(Department) bool) []Department {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.departments.filter(pred)
}

func (s *Store) InsertDepartment(d Department) (Department, error) {
	if strings.TrimSpace(d.Name) == "" {
		return Department{}, pkgerrors.New(pkgerrors.CodeValidation, "Department name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = s.newID()
	s.departments.insert(d)
	return d, nil
}

func (s *Store) UpdateDepartment(id string, patch DepartmentPatch) (Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.departments.index(id)
	if i < 0 {
		return Department{}, notFound("department")
	}
	d := s.departments.rows[i]
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return Department{}, pkgerrors.New(pkgerrors.CodeValidation, "Department name is required")
		}
		d.Name = *patch.Name
	}
	if patch.Description != nil {
		d.Description = *patch.Description
	}
	s.departments.replace(i, d)
	return d, nil
}

// RemoveDepartment refuses while any employee references the department.
func (s *Store) RemoveDepartment(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.departments.index(id)
	if i < 0 {
		return notFound("department")
	}
	if s.employees.exists(func(e Employee) bool { return e.DepartmentID == id }) {
		return pkgerrors.New(pkgerrors.CodeReferential, "Cannot delete department with employees")
	}
	s.departments.removeAt(i)
	return nil
}

// ---- employees ----

func (s *Store) ListEmployees() []Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.employees.list()
}

func (s *Store) FindEmployeeByID(id string) (Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.employees.find(id); ok {
		return e, nil
	}
	return Employee{}, notFound("employee")
}

func (s *Store) FindEmployees(pred func(Employee) bool) []Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.employees.filter(pred)
}

// checkEmployeeRefsLocked enforces that the employee points at an existing
// account and, when assigned, an existing department.
func (s *Store) checkEmployeeRefsLocked(e Employee) error {
	if _, ok := s.accountByEmailLocked(e.UserEmail); !ok {
		return pkgerrors.New(pkgerrors.CodeReferential, "User email must match an existing account")
	}
	if e.DepartmentID != "" && s.departments.index(e.DepartmentID) < 0 {
		return pkgerrors.New(pkgerrors.CodeReferential, "Department must match an existing department")
	}
	return nil
}

func (s *Store) InsertEmployee(e Employee) (Employee, error) {
	e.UserEmail = NormalizeEmail(e.UserEmail)
	e.DepartmentID = strings.TrimSpace(e.DepartmentID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkEmployeeRefsLocked(e); err != nil {
		return Employee{}, err
	}
	e.ID = s.newID()
	s.employees.insert(e)
	return e, nil
}

func (s *Store) UpdateEmployee(id string, patch EmployeePatch) (Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.employees.index(id)
	if i < 0 {
		return Employee{}, notFound("employee")
	}
	e := s.employees.rows[i]
	if patch.EmployeeID != nil {
		e.EmployeeID = *patch.EmployeeID
	}
	if patch.UserEmail != nil {
		e.UserEmail = NormalizeEmail(*patch.UserEmail)
	}
	if patch.Position != nil {
		e.Position = *patch.Position
	}
	if patch.DepartmentID != nil {
		e.DepartmentID = strings.TrimSpace(*patch.DepartmentID)
	}
	if patch.HireDate != nil {
		e.HireDate = *patch.HireDate
	}
	if err := s.checkEmployeeRefsLocked(e); err != nil {
		return Employee{}, err
	}
	s.employees.replace(i, e)
	return e, nil
}

func (s *Store) RemoveEmployee(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.employees.index(id)
	if i < 0 {
		return notFound("employee")
	}
	s.employees.removeAt(i)
	return nil
}

// ---- requests ----

func (s *Store) ListRequests() []Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.requests.list()
}

func (s *Store) FindRequestByID(id string) (Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.requests.find(id); ok {
		return r, nil
	}
	return Request{}, notFound("request")
}

func (s *Store) FindRequests(pred func(Request) bool) []Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.requests.filter(pred)
}

// RequestsFor lists the requests owned by email in submission order.
func (s *Store) RequestsFor(email string) []Request {
	email = NormalizeEmail(email)
	return s.FindRequests(func(r Request) bool { return r.EmployeeEmail == email })
}

// InsertRequest stores a new request. It needs at least one item, each with
// a name and a positive quantity. Status defaults to Pending and Date to now.
func (s *Store) InsertRequest(r Request) (Request, error) {
	r.EmployeeEmail = NormalizeEmail(r.EmployeeEmail)
	if r.EmployeeEmail == "" {
		return Request{}, pkgerrors.New(pkgerrors.CodeValidation, "Request owner is required")
	}
	if len(r.Items) == 0 {
		return Request{}, pkgerrors.New(pkgerrors.CodeValidation, "Please add at least one item")
	}
	for _, item := range r.Items {
		if strings.TrimSpace(item.Name) == "" || item.Qty < 1 {
			return Request{}, pkgerrors.New(pkgerrors.CodeValidation, "Each item needs a name and a quantity of at least 1")
		}
	}
	if r.Status == "" {
		r.Status = enums.RequestStatusPending
	}
	if !r.Status.IsValid() {
		return Request{}, pkgerrors.New(pkgerrors.CodeValidation, "Unknown request status")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Date.IsZero() {
		r.Date = s.now().UTC()
	}
	r.ID = s.newID()
	s.requests.insert(r)
	return cloneRequest(r), nil
}

// SetRequestStatus moves a pending request to a final status. Items are
// never touched.
func (s *Store) SetRequestStatus(id string, status enums.RequestStatus) (Request, error) {
	if !status.IsFinal() {
		return Request{}, pkgerrors.New(pkgerrors.CodeValidation, "Status must be Approved or Rejected")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.requests.index(id)
	if i < 0 {
		return Request{}, notFound("request")
	}
	r := s.requests.rows[i]
	if r.Status != enums.RequestStatusPending {
		return Request{}, pkgerrors.New(pkgerrors.CodeStateConflict, "Request has already been "+strings.ToLower(r.Status.String()))
	}
	r.Status = status
	s.requests.replace(i, r)
	return cloneRequest(r), nil
}

// ---- snapshot ----

// Snapshot returns a deep copy of the whole store.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Accounts:    s.accounts.list(),
		Departments: s.departments.list(),
		Employees:   s.employees.list(),
		Requests:    s.requests.list(),
	}
}

// Restore replaces the whole store with snap. Emails are normalized and
// missing statuses default to Pending.
func (s *Store) Restore(snap Snapshot) {
	accounts := make([]Account, 0, len(snap.Accounts))
	for _, a := range snap.Accounts {
		a.Email = NormalizeEmail(a.Email)
		accounts = append(accounts, a)
	}
	employees := make([]Employee, 0, len(snap.Employees))
	for _, e := range snap.Employees {
		e.UserEmail = NormalizeEmail(e.UserEmail)
		employees = append(employees, e)
	}
	requests := make([]Request, 0, len(snap.Requests))
	for _, r := range snap.Requests {
		r.EmployeeEmail = NormalizeEmail(r.EmployeeEmail)
		if r.Status == "" {
			r.Status = enums.RequestStatusPending
		}
		requests = append(requests, r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts.reset(accounts)
	s.departments.reset(snap.Departments)
	s.employees.reset(employees)
	s.requests.reset(requests)
}

// Counts reports the number of rows per entity.
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]int{
		"accounts":    s.accounts.len(),
		"departments": s.departments.len(),
		"employees":   s.employees.len(),
		"requests":    s.requests.len(),
	}
}
