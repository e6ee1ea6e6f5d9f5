package server

// Component is one service of the deployment described by the status page.
type Component struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Components lists the described services in page order.
func Components() []Component {
	return []Component{
		{Name: "Rocket.chat", Role: "Comunicação e colaboração"},
		{Name: "Node.js", Role: "API de backend (esta aplicação)"},
		{Name: "MongoDB", Role: "Banco de dados NoSQL com Replica Set"},
		{Name: "Caddy", Role: "Servidor Web e Proxy Reverso com HTTPS"},
	}
}
