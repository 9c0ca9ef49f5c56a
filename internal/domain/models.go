package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role роль пользователя на платформе
type Role string

const (
	RoleAdmin         Role = "ADMIN"
	RoleCustomer      Role = "CUSTOMER"
	RolePharmacyAdmin Role = "PHARMACY_ADMIN"
	RolePharmacist    Role = "PHARMACIST"
)

// User учётная запись. Профили (Customer/Pharmacy/Pharmacist) хранят
// обратную ссылку UserID, сам User на профили не указывает.
type User struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex"`
	Password  string    `json:"-"`
	Roles     RoleList  `json:"roles" gorm:"type:text"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) HasRole(r Role) bool {
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// Customer профиль покупателя, привязан к одному User
type Customer struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"user_id" gorm:"uniqueIndex"`
	Name      string    `json:"name"`
	CPF       string    `json:"cpf" gorm:"uniqueIndex"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// PharmacyStatus статус аптеки на платформе
type PharmacyStatus string

const (
	PharmacyPendingApproval PharmacyStatus = "PENDING_APPROVAL"
	PharmacyActive          PharmacyStatus = "ACTIVE"
	PharmacySuspended       PharmacyStatus = "SUSPENDED"
)

func (s PharmacyStatus) Valid() bool {
	switch s {
	case PharmacyPendingApproval, PharmacyActive, PharmacySuspended:
		return true
	}
	return false
}

// Pharmacy аптека (lojista). AdminUserID — единственный администратор.
type Pharmacy struct {
	ID           int64          `json:"id" gorm:"primaryKey"`
	AdminUserID  int64          `json:"admin_user_id" gorm:"uniqueIndex"`
	CNPJ         string         `json:"cnpj" gorm:"uniqueIndex"`
	CRFJ         string         `json:"crf_j" gorm:"uniqueIndex"`
	LegalName    string         `json:"legal_name"`
	TradeName    string         `json:"trade_name"`
	ContactEmail string         `json:"contact_email"`
	ContactPhone string         `json:"contact_phone"`
	Status       PharmacyStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Pharmacist фармацевт, работает ровно в одной аптеке
type Pharmacist struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	UserID     int64     `json:"user_id" gorm:"uniqueIndex"`
	PharmacyID int64     `json:"pharmacy_id" gorm:"index"`
	Name       string    `json:"name"`
	CPF        string    `json:"cpf"`
	CRF        string    `json:"crf" gorm:"uniqueIndex"`
	CreatedAt  time.Time `json:"created_at"`
}

// Address адрес доставки покупателя
type Address struct {
	ID         int64  `json:"id" gorm:"primaryKey"`
	CustomerID int64  `json:"customer_id" gorm:"index"`
	Label      string `json:"label"`
	Zip        string `json:"zip"`
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
}

// ProductCategory категория товара в мастер-каталоге
type ProductCategory string

const (
	CategoryMedication  ProductCategory = "MEDICATION"
	CategoryPerfumery   ProductCategory = "PERFUMERY"
	CategorySupplement  ProductCategory = "SUPPLEMENT"
	CategoryEquipment   ProductCategory = "EQUIPMENT"
	CategoryConvenience ProductCategory = "CONVENIENCE"
)

// PrescriptionTier уровень рецептурного контроля товара
type PrescriptionTier string

const (
	TierNotRequired    PrescriptionTier = "NOT_REQUIRED"
	TierSimple         PrescriptionTier = "SIMPLE"
	TierSpecialControl PrescriptionTier = "SPECIAL_CONTROL"
	TierClassB         PrescriptionTier = "CLASS_B"
	TierClassA         PrescriptionTier = "CLASS_A"
)

// RequiresPrescription true для любого уровня, кроме NOT_REQUIRED
func (t PrescriptionTier) RequiresPrescription() bool {
	return t != TierNotRequired
}

// Product запись мастер-каталога. Ведётся администратором платформы;
// при выводе из оборота деактивируется, но не удаляется, пока на неё
// ссылается чей-либо остаток.
type Product struct {
	ID               int64            `json:"id" gorm:"primaryKey"`
	Barcode          string           `json:"barcode" gorm:"uniqueIndex"`
	RegistryCode     string           `json:"registry_code" gorm:"uniqueIndex"`
	Name             string           `json:"name"`
	ActiveIngredient string           `json:"active_ingredient"`
	Manufacturer     string           `json:"manufacturer"`
	Description      string           `json:"description"`
	Category         ProductCategory  `json:"category"`
	Tier             PrescriptionTier `json:"tier"`
	Active           bool             `json:"active"`
}

// StockItem остаток: уникальная пара (аптека, товар) с ценой и количеством.
// Quantity никогда не уходит в минус: списание делается условным декрементом.
type StockItem struct {
	ID         int64           `json:"id" gorm:"primaryKey"`
	PharmacyID int64           `json:"pharmacy_id" gorm:"index:idx_stock_pharmacy_product,unique"`
	ProductID  int64           `json:"product_id" gorm:"index:idx_stock_pharmacy_product,unique"`
	Price      decimal.Decimal `json:"price" gorm:"type:numeric(12,2)"`
	Quantity   int64           `json:"quantity"`
	Active     bool            `json:"active"`
}
