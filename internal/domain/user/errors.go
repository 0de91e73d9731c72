package user

import "errors"

// User ドメインのエラー定義
var (
	ErrUserNotFound       = errors.New("ユーザーが見つかりません")
	ErrUserNameRequired   = errors.New("ユーザー名は必須です")
	ErrEmailRequired      = errors.New("メールアドレスは必須です")
	ErrInvalidEmail       = errors.New("メールアドレスの形式が不正です")
	ErrEmailAlreadyExists = errors.New("同じメールアドレスのユーザーが既に存在します")
)
