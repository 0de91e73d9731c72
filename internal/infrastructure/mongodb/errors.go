package mongodb

import "errors"

// errTxRequired はトランザクション必須の操作にトランザクションが渡されなかった場合のエラー
var errTxRequired = errors.New("この操作にはトランザクションが必要です")
