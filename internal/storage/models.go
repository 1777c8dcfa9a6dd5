package storage

import "time"

// PriceAgreement is one per-item price embedded in a contract
type PriceAgreement struct {
	Item  string  `bson:"item" json:"item"`
	Price float64 `bson:"price" json:"price"`
}

// ContractRecord mirrors a contract_prices document (projected fields only)
type ContractRecord struct {
	ContractNumber    string           `bson:"contractnumber" json:"contractnumber"`
	ContractName      string           `bson:"contractname" json:"contractname"`
	ContractStart     time.Time        `bson:"contractstart" json:"contractstart"`
	ContractEnd       time.Time        `bson:"contractend" json:"contractend"`
	PricingAgreements []PriceAgreement `bson:"pricingagreements" json:"pricingagreements"`
}

// CostRecord mirrors a costs document
type CostRecord struct {
	Item string  `bson:"item"`
	Cost float64 `bson:"cost"`
}

// CustomerRecord mirrors a customers document. The three fee fields are
// optional in the collection; missing fields stay nil and the lookup
// applies the documented defaults.
type CustomerRecord struct {
	ContractName    string   `bson:"contract_name"`
	DistributorFee  *float64 `bson:"distributor_fee,omitempty"`
	CashDiscountFee *float64 `bson:"cash_discount_fee,omitempty"`
	GPOFee          *float64 `bson:"gpo_fee,omitempty"`
}
