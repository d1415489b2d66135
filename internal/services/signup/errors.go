package signup

import "errors"

var (
	// ErrDuplicateAccount пользователь с такой почтой уже существует.
	ErrDuplicateAccount = errors.New("an account with this email already exists")
	// ErrNotFound незавершённая регистрация не найдена или истекла.
	ErrNotFound = errors.New("pending signup not found")
	// ErrNoPendingSignup у запроса нет идентификатора незавершённой регистрации.
	ErrNoPendingSignup = errors.New("no pending signup found, please start the signup process again")
	// ErrSignupExpired незавершённая регистрация пропала или истекла до оплаты.
	ErrSignupExpired = errors.New("signup session expired, please start the signup process again")
	// ErrUserNotFound пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrAlreadySubscribed у пользователя уже есть активная подписка.
	ErrAlreadySubscribed = errors.New("you already have an active subscription")
	// ErrPaymentNotCompleted checkout-сессия не оплачена.
	ErrPaymentNotCompleted = errors.New("payment not completed")
	// ErrInvalidCheckoutSession в checkout-сессии нет данных для сопоставления.
	ErrInvalidCheckoutSession = errors.New("invalid checkout session")
	// ErrSignupSessionExpired оплата прошла, но регистрация уже не существует и пользователь не создан.
	ErrSignupSessionExpired = errors.New("signup session expired")
	// ErrUnknownPlan неизвестный тарифный план.
	ErrUnknownPlan = errors.New("unknown plan")
)
