package model

// User 系统用户
// 一个用户可以绑定多个店铺，店铺删除时用户不受影响
type User struct {
	BaseModel
	Email    string `gorm:"size:100;uniqueIndex;not null"`
	Name     string `gorm:"size:100"`
	Password string `gorm:"size:255;not null"` // bcrypt 哈希密码

	// 关联关系
	Stores []Store `gorm:"foreignKey:UserID"`
}

func (User) TableName() string {
	return "users"
}
