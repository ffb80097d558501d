package payment

import "time"

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "Pending"
	StatusCompleted TransactionStatus = "Completed"
	StatusCanceled  TransactionStatus = "Canceled"
)

// Transaction is one STK push. Its ID doubles as the callback correlation id.
type Transaction struct {
	ID          string            `json:"id"`
	UserID      int64             `json:"user_id"`
	Amount      float64           `json:"amount"`
	PhoneNumber string            `json:"phone_number"`
	Status      TransactionStatus `json:"status"`
	ResultCode  *int              `json:"result_code,omitempty"`
	ProviderRef *string           `json:"provider_ref,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	SettledAt   *time.Time        `json:"settled_at,omitempty"`
}

// STKPushRequest is the Lipa Na M-Pesa Online request body.
type STKPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// Redacted returns a copy safe to hand back to clients.
func (r STKPushRequest) Redacted() STKPushRequest {
	r.Password = ""
	return r
}

type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// CallbackEnvelope is the body M-Pesa posts to the callback URL.
type CallbackEnvelope struct {
	Body struct {
		STKCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

type STKCallback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        *int   `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
}

type Outcome string

const (
	OutcomeSettled      Outcome = "Settled"
	OutcomeDuplicate    Outcome = "Duplicate"
	OutcomeUnrecognized Outcome = "Unrecognized"
)

// Ack is what the callback endpoint answers. Outcome stays server side.
type Ack struct {
	ResultCode int     `json:"ResultCode"`
	ResultDesc string  `json:"ResultDesc"`
	Outcome    Outcome `json:"-"`
}

type InitiateResult struct {
	CorrelationID   string         `json:"correlation_id"`
	Payload         STKPushRequest `json:"payload"`
	ProviderRef     string         `json:"provider_ref,omitempty"`
	CustomerMessage string         `json:"customer_message,omitempty"`
}

// CallbackRecord is one row of the payment_callbacks audit log.
type CallbackRecord struct {
	TransactionID *string
	ProviderRef   *string
	ResultCode    *int
	Payload       string
}
