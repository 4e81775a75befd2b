package postgres

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opexhub/expense-approval/internal/category"
)

func TestCategoryRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "CategoryRepository Suite")
}

// SQLite mirror; the production struct carries postgres-only column defaults.
type sqliteCategory struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex;not null"`
	Description string
	IsActive    bool `gorm:"column:is_active"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (sqliteCategory) TableName() string { return "expense_categories" }

var _ = Describe("CategoryRepository", func() {
	var (
		db   *gorm.DB
		repo category.RepositoryAPI
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
		Expect(err).NotTo(HaveOccurred())

		Expect(db.AutoMigrate(&sqliteCategory{})).To(Succeed())
		repo = NewCategoryRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	It("lists active categories sorted by name", func() {
		Expect(repo.Create(category.NewCategory("travel", "Flights and taxis"))).To(Succeed())
		Expect(repo.Create(category.NewCategory("meals", "Client meals"))).To(Succeed())

		retired := category.NewCategory("fax", "Nobody faxes anymore")
		retired.Deactivate()
		Expect(repo.Create(retired)).To(Succeed())

		active, err := repo.GetAllActive()
		Expect(err).NotTo(HaveOccurred())
		Expect(active).To(HaveLen(2))
		Expect(active[0].Name).To(Equal("meals"))
		Expect(active[1].Name).To(Equal("travel"))
	})

	It("finds categories by name and returns nil for unknown ones", func() {
		Expect(repo.Create(category.NewCategory("software", "Licenses and subscriptions"))).To(Succeed())

		c, err := repo.GetByName("software")
		Expect(err).NotTo(HaveOccurred())
		Expect(c).NotTo(BeNil())
		Expect(c.Description).To(Equal("Licenses and subscriptions"))

		missing, err := repo.GetByName("cryptozoology")
		Expect(err).NotTo(HaveOccurred())
		Expect(missing).To(BeNil())
	})

	It("rejects duplicate names", func() {
		Expect(repo.Create(category.NewCategory("office", "Supplies"))).To(Succeed())
		Expect(repo.Create(category.NewCategory("office", "Again"))).NotTo(Succeed())
	})
})
