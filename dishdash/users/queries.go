package users

const (
	queryFindByEmail = `
		SELECT id, email, name, role, password_hash, active, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	queryFindByID = `
		SELECT id, email, name, role, password_hash, active, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	querySetAvatar = `
		UPDATE users
		SET avatar = $1, avatar_content_type = $2, updated_at = NOW()
		WHERE id = $3
	`
)
