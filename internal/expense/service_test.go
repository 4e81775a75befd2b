package expense_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/opexhub/expense-approval/internal/currency"
	"github.com/opexhub/expense-approval/internal/expense"
	"github.com/opexhub/expense-approval/internal/user"
)

func TestExpenseService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ExpenseService Suite")
}

// Mock repository for testing
type mockExpenseRepository struct {
	expenses    map[int64]*expense.Expense
	createError error
	getError    error
	nextID      int64
}

func newMockExpenseRepository() *mockExpenseRepository {
	return &mockExpenseRepository{
		expenses: make(map[int64]*expense.Expense),
		nextID:   1,
	}
}

func (m *mockExpenseRepository) Create(exp *expense.Expense) error {
	if m.createError != nil {
		return m.createError
	}
	exp.ID = m.nextID
	m.nextID++
	exp.CreatedAt = time.Now()
	exp.UpdatedAt = time.Now()
	m.expenses[exp.ID] = exp
	return nil
}

func (m *mockExpenseRepository) GetByID(id int64) (*expense.Expense, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	exp, ok := m.expenses[id]
	if !ok {
		return nil, expense.ErrExpenseNotFound
	}
	return exp, nil
}

func (m *mockExpenseRepository) GetByUserID(userID int64, limit, offset int) ([]*expense.Expense, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	var out []*expense.Expense
	for _, exp := range m.expenses {
		if exp.SubmitterID == userID {
			out = append(out, exp)
		}
	}
	return out, nil
}

func (m *mockExpenseRepository) GetAllByCompany(companyID int64, limit, offset int) ([]*expense.Expense, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	var out []*expense.Expense
	for _, exp := range m.expenses {
		out = append(out, exp)
	}
	return out, nil
}

type mockRateSource struct {
	rate       float64
	convertErr error
	calls      int
}

func (m *mockRateSource) Convert(_ context.Context, amount float64, from, to string) (currency.Conversion, error) {
	m.calls++
	if m.convertErr != nil {
		return currency.Conversion{}, m.convertErr
	}
	return currency.Conversion{ConvertedAmount: amount * m.rate, Rate: m.rate, Live: true}, nil
}

type mockCurrencySource struct {
	base string
	err  error
}

func (m *mockCurrencySource) BaseCurrencyForUser(userID int64) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.base, nil
}

type mockApprovalService struct {
	submitted []int64
	submitErr error
	repo      *mockExpenseRepository
}

func (m *mockApprovalService) SubmitExpense(expenseID, actorID int64) (*expense.Expense, error) {
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	m.submitted = append(m.submitted, expenseID)
	exp, err := m.repo.GetByID(expenseID)
	if err != nil {
		return nil, err
	}
	if err := exp.Submit(); err != nil {
		return nil, err
	}
	return exp, nil
}

var _ = Describe("ExpenseService", func() {
	var (
		service   *expense.Service
		repo      *mockExpenseRepository
		rates     *mockRateSource
		companies *mockCurrencySource
		approvals *mockApprovalService

		employee *user.User
		manager  *user.User
	)

	BeforeEach(func() {
		repo = newMockExpenseRepository()
		rates = &mockRateSource{rate: 0.85}
		companies = &mockCurrencySource{base: "USD"}
		approvals = &mockApprovalService{repo: repo}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = expense.NewService(repo, rates, companies, approvals, logger)

		managerID := int64(2)
		employee = &user.User{ID: 1, Role: user.RoleEmployee, CompanyID: 1, ManagerID: &managerID}
		manager = &user.User{ID: 2, Role: user.RoleManager, CompanyID: 1}
	})

	Describe("CreateExpense", func() {
		It("creates a draft in the company base currency without conversion", func() {
			exp, err := service.CreateExpense(context.Background(), employee, expense.CreateExpenseDTO{
				Description: "office chair",
				Amount:      250,
				Currency:    "USD",
				Category:    "office",
				ExpenseDate: time.Now().AddDate(0, 0, -1),
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(exp.Status).To(Equal(expense.StatusDraft))
			Expect(exp.ConvertedAmount).To(Equal(250.0))
			Expect(rates.calls).To(BeZero())
		})

		It("converts foreign amounts once at creation", func() {
			exp, err := service.CreateExpense(context.Background(), employee, expense.CreateExpenseDTO{
				Description: "conference ticket",
				Amount:      100,
				Currency:    "EUR",
				ExpenseDate: time.Now().AddDate(0, 0, -1),
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(exp.ConvertedAmount).To(Equal(85.0))
			Expect(exp.BaseCurrency).To(Equal("USD"))
			Expect(rates.calls).To(Equal(1))
		})

		It("routes the expense immediately when not a draft", func() {
			isDraft := false
			exp, err := service.CreateExpense(context.Background(), employee, expense.CreateExpenseDTO{
				Description: "client lunch",
				Amount:      60,
				Currency:    "USD",
				ExpenseDate: time.Now().AddDate(0, 0, -1),
				IsDraft:     &isDraft,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(exp.Status).To(Equal(expense.StatusSubmitted))
			Expect(approvals.submitted).To(HaveLen(1))
		})

		It("rejects invalid payloads", func() {
			_, err := service.CreateExpense(context.Background(), employee, expense.CreateExpenseDTO{
				Description: "negative",
				Amount:      -5,
				Currency:    "USD",
				ExpenseDate: time.Now(),
			})
			Expect(err).To(HaveOccurred())
		})

		It("rejects future-dated expenses", func() {
			_, err := service.CreateExpense(context.Background(), employee, expense.CreateExpenseDTO{
				Description: "time travel",
				Amount:      10,
				Currency:    "USD",
				ExpenseDate: time.Now().AddDate(0, 0, 2),
			})
			Expect(err).To(HaveOccurred())
		})

		It("propagates conversion failures", func() {
			rates.convertErr = errors.New("rates api down")

			_, err := service.CreateExpense(context.Background(), employee, expense.CreateExpenseDTO{
				Description: "hotel",
				Amount:      300,
				Currency:    "GBP",
				ExpenseDate: time.Now().AddDate(0, 0, -1),
			})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetExpenseByID", func() {
		var created *expense.Expense

		BeforeEach(func() {
			var err error
			created, err = service.CreateExpense(context.Background(), employee, expense.CreateExpenseDTO{
				Description: "keyboard",
				Amount:      80,
				Currency:    "USD",
				ExpenseDate: time.Now().AddDate(0, 0, -1),
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("lets the submitter read their own expense", func() {
			exp, err := service.GetExpenseByID(created.ID, employee)
			Expect(err).NotTo(HaveOccurred())
			Expect(exp.ID).To(Equal(created.ID))
		})

		It("lets approving roles read any expense", func() {
			_, err := service.GetExpenseByID(created.ID, manager)
			Expect(err).NotTo(HaveOccurred())
		})

		It("hides other employees' expenses", func() {
			stranger := &user.User{ID: 9, Role: user.RoleEmployee, CompanyID: 1}
			_, err := service.GetExpenseByID(created.ID, stranger)
			Expect(errors.Is(err, expense.ErrUnauthorizedAccess)).To(BeTrue())
		})

		It("reports missing expenses", func() {
			_, err := service.GetExpenseByID(999, employee)
			Expect(errors.Is(err, expense.ErrExpenseNotFound)).To(BeTrue())
		})
	})

	Describe("state machine", func() {
		It("names the attempted action in transition errors", func() {
			settled := &expense.Expense{Status: expense.StatusApproved}

			Expect(settled.Submit().Error()).To(ContainSubstring("cannot be submitted"))
			Expect(settled.Approve().Error()).To(ContainSubstring("cannot be approved"))
			Expect(settled.Reject().Error()).To(ContainSubstring("cannot be rejected"))
		})
	})

	Describe("GetCompanyExpenses", func() {
		It("denies plain employees", func() {
			_, err := service.GetCompanyExpenses(employee, 20, 0)
			Expect(errors.Is(err, expense.ErrUnauthorizedAccess)).To(BeTrue())
		})

		It("allows managers", func() {
			_, err := service.GetCompanyExpenses(manager, 20, 0)
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
