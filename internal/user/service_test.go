package user_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/opexhub/expense-approval/internal"
	"github.com/opexhub/expense-approval/internal/auth"
	"github.com/opexhub/expense-approval/internal/user"
)

func TestUserService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "UserService Suite")
}

type mockUserRepository struct {
	users       map[int64]*user.User
	createError error
	nextID      int64
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:  make(map[int64]*user.User),
		nextID: 1,
	}
}

func (m *mockUserRepository) add(u *user.User) *user.User {
	if u.ID == 0 {
		u.ID = m.nextID
		m.nextID++
	} else if u.ID >= m.nextID {
		m.nextID = u.ID + 1
	}
	m.users[u.ID] = u
	return u
}

func (m *mockUserRepository) Create(u *user.User) error {
	if m.createError != nil {
		return m.createError
	}
	m.add(u)
	return nil
}

func (m *mockUserRepository) GetByID(id int64) (*user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepository) GetByEmail(email string) (*user.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *mockUserRepository) ListByCompany(companyID int64) ([]*user.User, error) {
	var out []*user.User
	for _, u := range m.users {
		if u.CompanyID == companyID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUserRepository) ListManagers(companyID int64) ([]*user.User, error) {
	var out []*user.User
	for _, u := range m.users {
		if u.CompanyID == companyID && u.Role.CanApprove() {
			out = append(out, u)
		}
	}
	return out, nil
}

var _ = Describe("UserService", func() {
	var (
		repo    *mockUserRepository
		service *user.Service
		admin   *user.User
		manager *user.User
	)

	BeforeEach(func() {
		repo = newMockUserRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = user.NewService(repo, 10, logger)

		admin = repo.add(&user.User{Email: "admin@acme.test", Role: user.RoleAdmin, CompanyID: 1, IsActive: true})
		manager = repo.add(&user.User{Email: "mgr@acme.test", Role: user.RoleManager, CompanyID: 1, IsActive: true})
	})

	Describe("CreateUser", func() {
		It("creates an employee under a manager with a generated password", func() {
			created, err := service.CreateUser(admin, user.CreateUserDTO{
				Email:     "emp@acme.test",
				Name:      "Eli",
				Role:      user.RoleEmployee,
				ManagerID: &manager.ID,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(created.User.CompanyID).To(Equal(admin.CompanyID))
			Expect(created.InitialPassword).To(HaveLen(10))
			Expect(auth.VerifyPassword(created.User.PasswordHash, created.InitialPassword)).To(Succeed())
		})

		It("keeps a caller-provided password and does not echo it", func() {
			created, err := service.CreateUser(admin, user.CreateUserDTO{
				Email:     "emp2@acme.test",
				Name:      "Emma",
				Role:      user.RoleEmployee,
				ManagerID: &manager.ID,
				Password:  "chosen-by-admin",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(created.InitialPassword).To(BeEmpty())
			Expect(auth.VerifyPassword(created.User.PasswordHash, "chosen-by-admin")).To(Succeed())
		})

		It("refuses non-admin callers", func() {
			_, err := service.CreateUser(manager, user.CreateUserDTO{
				Email: "x@acme.test", Name: "X", Role: user.RoleEmployee, ManagerID: &manager.ID,
			})
			Expect(errors.Is(err, internal.ErrUnauthorizedAccess)).To(BeTrue())
		})

		It("requires employees to have a manager", func() {
			_, err := service.CreateUser(admin, user.CreateUserDTO{
				Email: "solo@acme.test", Name: "Solo", Role: user.RoleEmployee,
			})
			Expect(err).To(HaveOccurred())
		})

		It("rejects managers from another company", func() {
			foreign := repo.add(&user.User{Email: "far@other.test", Role: user.RoleManager, CompanyID: 2, IsActive: true})

			_, err := service.CreateUser(admin, user.CreateUserDTO{
				Email: "emp3@acme.test", Name: "E3", Role: user.RoleEmployee, ManagerID: &foreign.ID,
			})
			Expect(err).To(HaveOccurred())
		})

		It("rejects a manager who cannot approve", func() {
			peer := repo.add(&user.User{Email: "peer@acme.test", Role: user.RoleEmployee, CompanyID: 1, ManagerID: &manager.ID, IsActive: true})

			_, err := service.CreateUser(admin, user.CreateUserDTO{
				Email: "emp4@acme.test", Name: "E4", Role: user.RoleEmployee, ManagerID: &peer.ID,
			})
			Expect(err).To(HaveOccurred())
		})

		It("rejects duplicate emails", func() {
			_, err := service.CreateUser(admin, user.CreateUserDTO{
				Email: manager.Email, Name: "Dup", Role: user.RoleManager,
			})
			Expect(errors.Is(err, user.ErrDuplicateEmail)).To(BeTrue())
		})
	})

	Describe("ListUsers", func() {
		It("is admin-only", func() {
			_, err := service.ListUsers(manager)
			Expect(errors.Is(err, internal.ErrUnauthorizedAccess)).To(BeTrue())

			users, err := service.ListUsers(admin)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(2))
		})
	})

	Describe("ListManagers", func() {
		It("returns only approving roles in the actor's company", func() {
			repo.add(&user.User{Email: "emp@acme.test", Role: user.RoleEmployee, CompanyID: 1, ManagerID: &manager.ID, IsActive: true})
			repo.add(&user.User{Email: "other@far.test", Role: user.RoleManager, CompanyID: 2, IsActive: true})

			managers, err := service.ListManagers(manager)
			Expect(err).NotTo(HaveOccurred())
			Expect(managers).To(HaveLen(2), "admin and manager, nobody else")
		})
	})
})
