package content

import "time"

// Fallback data keeps every page populated when the configured resources
// cannot be loaded. Callers receive fresh copies.

func fallbackCategories() CategoryTable {
	return NewCategoryTable(map[ItemType][]Category{
		TypeDIY: {
			{ID: "electronics", Name: "電子製作", Icon: "fas fa-microchip", Color: "#4f8cff"},
			{ID: "woodworking", Name: "木工", Icon: "fas fa-hammer", Color: "#b07b46"},
			{ID: "3d-printing", Name: "3D 列印", Icon: "fas fa-cube", Color: "#7b61ff"},
		},
		TypeProject: {
			{ID: "web", Name: "網頁應用", Icon: "fas fa-globe", Color: "#2bb673"},
			{ID: "tool", Name: "開發工具", Icon: "fas fa-wrench", Color: "#f59e0b"},
		},
	})
}

func fallbackItems() []Item {
	return []Item{
		{
			ID:          "esp32-weather-station",
			Type:        TypeDIY,
			Title:       "ESP32 氣象站",
			Description: "以 ESP32 搭配溫濕度與氣壓感測器，透過 Wi-Fi 上傳資料並在網頁上即時顯示。",
			TechStack:   []string{"ESP32", "BME280", "MQTT"},
			Features:    []string{"即時監測", "低功耗", "資料記錄"},
			Date:        time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC),
			Category:    "electronics",
			Icon:        "fas fa-cloud-sun",
		},
		{
			ID:          "walnut-desk-shelf",
			Type:        TypeDIY,
			Title:       "胡桃木桌上架",
			Description: "榫接結構的桌上收納架，全程手工具完成。",
			TechStack:   []string{"胡桃木", "榫接", "木蠟油"},
			Features:    []string{"免釘結構", "可拆卸"},
			Date:        time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
			Category:    "woodworking",
			Icon:        "fas fa-couch",
		},
		{
			ID:          "printed-cable-organizer",
			Type:        TypeDIY,
			Title:       "3D 列印線材收納",
			Description: "參數化設計的理線夾，依桌板厚度自動調整尺寸。",
			TechStack:   []string{"OpenSCAD", "PETG"},
			Features:    []string{"參數化", "卡扣式安裝"},
			Date:        time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
			Category:    "3d-printing",
			Icon:        "fas fa-cube",
		},
		{
			ID:          "kivs-lab-site",
			Type:        TypeProject,
			Title:       "Kiv's Lab 個人網站",
			Description: "記錄 DIY 筆記與專案作品的個人網站。",
			TechStack:   []string{"Go", "htmx", "HTML/CSS"},
			Features:    []string{"分類篩選", "排序", "靜態輸出"},
			Date:        time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
			Category:    "web",
			Icon:        "fas fa-flask",
			Links:       Links{GitHub: "https://github.com/kivxxx"},
			Featured:    true,
		},
		{
			ID:          "dotfiles-bootstrap",
			Type:        TypeProject,
			Title:       "Dotfiles Bootstrap",
			Description: "一行指令完成開發環境設定的腳本集合。",
			TechStack:   []string{"Shell", "Make"},
			Features:    []string{"跨平台", "冪等執行"},
			Date:        time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
			Category:    "tool",
			Icon:        "fas fa-terminal",
			Links:       Links{GitHub: "https://github.com/kivxxx"},
		},
	}
}

func fallbackUpdates() []Update {
	return []Update{
		{
			Type:        "code",
			Title:       "網站改版上線",
			Description: "專案與 DIY 頁面支援分類篩選與排序。",
			Date:        time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
			Link:        "/projects",
		},
		{
			Type:        "diy",
			Title:       "ESP32 氣象站",
			Description: "新增感測器校正筆記。",
			Date:        time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC),
			Link:        "/diy/esp32-weather-station",
		},
		{
			Type:        "diy",
			Title:       "胡桃木桌上架",
			Description: "完成上油與組裝紀錄。",
			Date:        time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
			Link:        "/diy/walnut-desk-shelf",
		},
	}
}
