package repository

import "errors"

var (
	// ErrDuplicateUser 用户名或邮箱已存在
	ErrDuplicateUser = errors.New("username or email already exists")

	// ErrDuplicateSong 歌曲对象路径已存在
	ErrDuplicateSong = errors.New("song path already exists")
)
