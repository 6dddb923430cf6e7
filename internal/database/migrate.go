package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS personas (
		id_persona BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		nombres    VARCHAR(120) NOT NULL,
		apellidos  VARCHAR(120) NOT NULL,
		telefono   VARCHAR(30)  NOT NULL DEFAULT ''
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS usuarios (
		id_usuario    BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username      VARCHAR(190) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		rol           VARCHAR(20)  NOT NULL DEFAULT 'USUARIO',
		id_persona    BIGINT UNSIGNED NULL,
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_usuarios_username (username),
		CONSTRAINT fk_usuarios_persona FOREIGN KEY (id_persona) REFERENCES personas (id_persona)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		id_usuario BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		KEY idx_refresh_tokens_usuario (id_usuario),
		CONSTRAINT fk_refresh_tokens_usuario FOREIGN KEY (id_usuario) REFERENCES usuarios (id_usuario)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS emprendimientos (
		id_emprendimiento BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		nombre            VARCHAR(190) NOT NULL,
		id_usuario        BIGINT UNSIGNED NOT NULL,
		KEY idx_emprendimientos_usuario (id_usuario),
		CONSTRAINT fk_emprendimientos_usuario FOREIGN KEY (id_usuario) REFERENCES usuarios (id_usuario)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS servicios_turisticos (
		id_servicio       BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		nombre            VARCHAR(190)  NOT NULL,
		precio_unitario   DECIMAL(12,2) NOT NULL,
		tipo_servicio     VARCHAR(50)   NOT NULL DEFAULT '',
		id_emprendimiento BIGINT UNSIGNED NULL,
		KEY idx_servicios_emprendimiento (id_emprendimiento)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reservas (
		id_reserva         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		id_usuario         BIGINT UNSIGNED NOT NULL,
		id_emprendimiento  BIGINT UNSIGNED NOT NULL,
		fecha_hora_inicio  DATETIME NOT NULL,
		fecha_hora_fin     DATETIME NOT NULL,
		fecha_hora_reserva DATETIME NOT NULL,
		estado             VARCHAR(20) NOT NULL DEFAULT 'PENDIENTE',
		total_general      DECIMAL(12,2) NOT NULL,
		KEY idx_reservas_usuario (id_usuario, fecha_hora_reserva),
		KEY idx_reservas_emprendimiento (id_emprendimiento, fecha_hora_reserva),
		CONSTRAINT fk_reservas_usuario FOREIGN KEY (id_usuario) REFERENCES usuarios (id_usuario),
		CONSTRAINT fk_reservas_emprendimiento FOREIGN KEY (id_emprendimiento) REFERENCES emprendimientos (id_emprendimiento)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reserva_detalles (
		id_reserva_detalle BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		id_reserva         BIGINT UNSIGNED NOT NULL,
		id_servicio        BIGINT UNSIGNED NOT NULL,
		cantidad           INT NOT NULL,
		precio_unitario    DECIMAL(12,2) NOT NULL,
		total              DECIMAL(12,2) NOT NULL,
		observaciones      VARCHAR(500) NOT NULL DEFAULT '',
		KEY idx_reserva_detalles_reserva (id_reserva),
		CONSTRAINT fk_reserva_detalles_reserva FOREIGN KEY (id_reserva) REFERENCES reservas (id_reserva) ON DELETE CASCADE,
		CONSTRAINT fk_reserva_detalles_servicio FOREIGN KEY (id_servicio) REFERENCES servicios_turisticos (id_servicio)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing table.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
